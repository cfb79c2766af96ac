package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lucasew/markdown-input/internal/bundle"
	"github.com/lucasew/markdown-input/internal/httputil"
	"github.com/lucasew/markdown-input/internal/preview"
	"github.com/lucasew/markdown-input/internal/version"
)

// ErrUnknownFormat is returned for a format other than html, term or termhtml.
var ErrUnknownFormat = errors.New("unknown output format")

var errBadQuery = errors.New("invalid query parameter")

// Renderers holds one preview component per output format.
type Renderers struct {
	HTML         *preview.Component
	Terminal     *preview.Component
	TerminalHTML *preview.Component
	// Default is the format used when a request does not name one.
	Default string
}

// For returns the component for format ("html", "term", "termhtml" or ""
// for Default).
func (r Renderers) For(format string) (*preview.Component, error) {
	if format == "" {
		format = r.Default
	}
	switch format {
	case "", "html":
		if r.HTML != nil {
			return r.HTML, nil
		}
	case "term":
		if r.Terminal != nil {
			return r.Terminal, nil
		}
	case "termhtml":
		if r.TerminalHTML != nil {
			return r.TerminalHTML, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func (s *HttpServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	httputil.WriteErrorMessage(w, status, err.Error())
}

func (s *HttpServer) writeJSON(w http.ResponseWriter, status int, data any) {
	if err := httputil.WriteJSON(w, status, data); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func (s *HttpServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteText(w, http.StatusOK, "OK")
}

func (s *HttpServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	lib := ""
	if s.bundle != nil {
		lib = s.bundle.Output.Library
	}
	s.writeJSON(w, http.StatusOK, version.Describe(lib))
}

func (s *HttpServer) handleDefaults(w http.ResponseWriter, r *http.Request) {
	c, err := s.renderers.For(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c.Defaults())
}

func (s *HttpServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	c, err := s.renderers.For(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := preview.ParseRequest(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := c.RenderRequest(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *HttpServer) handleLint(w http.ResponseWriter, r *http.Request) {
	src, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	file := s.lint.Process(r.URL.Query().Get("path"), src)
	s.writeJSON(w, http.StatusOK, file)
}

type bundleResponse struct {
	Config   *bundle.Config   `json:"config"`
	Warnings []bundle.Warning `json:"warnings"`
}

func (s *HttpServer) handleBundle(w http.ResponseWriter, r *http.Request) {
	cfg := s.bundle
	if name := r.URL.Query().Get("preset"); name != "" {
		preset, err := bundle.Preset(name)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", errBadQuery, err))
			return
		}
		cfg = preset
	}
	if cfg == nil {
		s.writeError(w, r, errors.New("no bundle configuration loaded"))
		return
	}

	warnings, err := cfg.Validate()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if warnings == nil {
		warnings = []bundle.Warning{}
	}
	s.writeJSON(w, http.StatusOK, bundleResponse{Config: cfg, Warnings: warnings})
}

func (s *HttpServer) handleExternal(w http.ResponseWriter, r *http.Request) {
	specifier := r.URL.Query().Get("specifier")
	if specifier == "" {
		s.writeError(w, r, fmt.Errorf("%w: specifier", errBadQuery))
		return
	}
	if s.bundle == nil {
		s.writeError(w, r, errors.New("no bundle configuration loaded"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"specifier": specifier,
		"external":  s.bundle.IsExternal(specifier),
	})
}
