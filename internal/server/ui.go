package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/lucasew/markdown-input/internal/markdown"
	"github.com/lucasew/markdown-input/internal/preview"
	"github.com/lucasew/markdown-input/internal/version"
)

//go:embed templates/*
var templatesFS embed.FS

// playgroundSample is rendered server side so the page works without scripts.
const playgroundSample = "# Preview\n\nType **Markdown** or MDX on the left.\n\n- lists\n- `code`\n- [links](https://example.com)\n"

// UIServer serves the preview playground page.
type UIServer struct {
	component *preview.Component
	logger    *slog.Logger
	templates *template.Template
}

func NewUIServer(component *preview.Component, logger *slog.Logger) *UIServer {
	s := &UIServer{component: component, logger: logger}
	funcMap := template.FuncMap{
		"markdown": s.renderHTML,
	}
	s.templates = template.Must(template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html"))
	return s
}

// renderHTML renders with the configured defaults, falling back to the
// package renderer when no component is set.
func (s *UIServer) renderHTML(source string) template.HTML {
	if s.component == nil {
		return markdown.Render(source)
	}
	res, err := s.component.Render(source, nil)
	if err != nil {
		s.logger.Warn("playground render failed", "error", err)
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(res.Body)
}

func (s *UIServer) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Sample":  playgroundSample,
		"Token":   r.URL.Query().Get("token"),
		"Version": version.Get(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "playground.html", data); err != nil {
		s.logger.Error("failed to render template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
