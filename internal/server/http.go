package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/lucasew/markdown-input/internal/bundle"
	"github.com/lucasew/markdown-input/internal/config"
	"github.com/lucasew/markdown-input/internal/lint"
	"github.com/lucasew/markdown-input/internal/preview"
	"github.com/lucasew/markdown-input/internal/sanitize"
)

// securityHeadersMiddleware adds common security headers to each response.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 'unsafe-inline' is needed for the playground script and inline styles.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the live preview upgrade through the logging middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *HttpServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", sanitize.Query(r.URL.RawQuery),
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *HttpServer) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HttpServer) originAllowed(origin string) bool {
	return slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin)
}

func (s *HttpServer) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && s.cfg.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// HttpServer exposes the preview component, the lint preset and the bundle
// configuration to host editors.
type HttpServer struct {
	cfg       config.ServerConfig
	renderers Renderers
	lint      lint.Preset
	bundle    *bundle.Config
	auth      *Authenticator
	live      *LiveServer
	ui        *UIServer
	logger    *slog.Logger
}

func NewHttpServer(cfg config.ServerConfig, renderers Renderers, bundleCfg *bundle.Config, auth *Authenticator, logger *slog.Logger) *HttpServer {
	if logger == nil {
		logger = slog.Default()
	}
	if auth == nil {
		auth = NewAuthenticator("", 0)
	}
	s := &HttpServer{
		cfg:       cfg,
		renderers: renderers,
		lint:      lint.MarkdownStyleGuide(),
		bundle:    bundleCfg,
		auth:      auth,
		logger:    logger,
	}
	s.live = NewLiveServer(renderers, cfg.AllowedOrigins, logger)
	s.ui = NewUIServer(renderers.HTML, logger)
	return s
}

// Handler returns the full middleware-wrapped route table.
func (s *HttpServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /{$}", s.ui.HandleIndex)

	mux.HandleFunc("GET /v1/preview/defaults", s.auth.RequireBearer(s.handleDefaults))
	mux.HandleFunc("POST /v1/preview", s.auth.RequireBearer(s.handlePreview))
	mux.HandleFunc("GET /v1/preview/live", s.auth.RequireBearer(s.live.HandleConnect))
	mux.HandleFunc("POST /v1/lint", s.auth.RequireBearer(s.handleLint))
	mux.HandleFunc("GET /v1/bundle", s.auth.RequireBearer(s.handleBundle))
	mux.HandleFunc("GET /v1/bundle/external", s.auth.RequireBearer(s.handleExternal))

	return securityHeadersMiddleware(s.logRequests(s.cors(s.limitBody(mux))))
}

func (s *HttpServer) Serve(l net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	return srv.Serve(l)
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *HttpServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.HTTPAddr, "auth", s.auth.Enabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// statusFor maps handler errors to HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, preview.ErrInvalidOptions),
		errors.Is(err, preview.ErrInvalidRequest),
		errors.Is(err, ErrUnknownFormat),
		errors.Is(err, errBadQuery):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
