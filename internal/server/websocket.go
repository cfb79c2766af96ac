package server

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lucasew/markdown-input/internal/preview"
	"github.com/lucasew/markdown-input/internal/sanitize"
)

const (
	liveReadLimit = 1 << 20
	liveWriteWait = 10 * time.Second
)

// LiveServer renders every text message received on a WebSocket and replies
// with the result, so editors can preview as the user types.
type LiveServer struct {
	renderers      Renderers
	allowedOrigins []string
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

func NewLiveServer(renderers Renderers, allowedOrigins []string, logger *slog.Logger) *LiveServer {
	s := &LiveServer{
		renderers:      renderers,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin accepts same-origin requests, non-browser clients and the
// configured origins.
func (s *LiveServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

type liveError struct {
	Error string `json:"error"`
}

func (s *LiveServer) HandleConnect(w http.ResponseWriter, r *http.Request) {
	component, err := s.renderers.For(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()
	conn.SetReadLimit(liveReadLimit)
	s.logger.Debug("live preview connected", "remote", r.RemoteAddr, "url", sanitize.URL(r.URL))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			s.logDisconnect(err)
			return
		}
		if msgType != websocket.TextMessage {
			if err := s.reply(conn, liveError{Error: "expected a text message"}); err != nil {
				return
			}
			continue
		}

		var reply any
		req, err := preview.ParseRequest(data)
		if err == nil {
			reply, err = component.RenderRequest(req)
		}
		if err != nil {
			reply = liveError{Error: err.Error()}
		}
		if err := s.reply(conn, reply); err != nil {
			s.logger.Error("failed to write live preview", "error", err)
			return
		}
	}
}

func (s *LiveServer) reply(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteJSON(v)
}

func (s *LiveServer) logDisconnect(err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && (closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway) {
		s.logger.Debug("live preview closed normally")
		return
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) && errors.Is(netErr.Err, net.ErrClosed) {
		s.logger.Debug("connection closed by server")
		return
	}
	s.logger.Warn("live preview connection error", "error", err)
}
