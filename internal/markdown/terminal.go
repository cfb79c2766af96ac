package markdown

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cast"

	"github.com/lucasew/markdown-input/internal/preview"
)

const (
	DefaultTerminalStyle = "dark"
	DefaultTerminalWidth = 80

	terminalContentType = "text/plain; charset=utf-8"
	maxTerminalWidth    = 400
)

// Terminal renders Markdown for a terminal with glamour. The style and
// wrap width come from the opaque "style" and "wordWrap" option keys, or
// the backend's own defaults. Callers may only pick built-in styles; a style
// path is accepted from configuration only.
//
// glamour.TermRenderer is not safe for concurrent Render calls, so
// renderers are pooled per style and width instead of shared.
type Terminal struct {
	style string
	width int

	mu    sync.RWMutex
	pools map[string]*sync.Pool
}

// NewTerminal creates a terminal backend. Empty style or non-positive width
// use the package defaults.
func NewTerminal(style string, width int) *Terminal {
	if style == "" {
		style = DefaultTerminalStyle
	}
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return &Terminal{
		style: style,
		width: width,
		pools: make(map[string]*sync.Pool),
	}
}

// Render implements preview.Backend.
func (t *Terminal) Render(text string, opts preview.Options) (preview.Document, error) {
	style, width, err := t.resolve(opts)
	if err != nil {
		return preview.Document{}, err
	}

	r, err := t.get(style, width)
	if err != nil {
		return preview.Document{}, err
	}
	defer t.put(style, width, r)

	out, err := r.Render(text)
	if err != nil {
		return preview.Document{}, fmt.Errorf("render terminal markdown: %w", err)
	}
	return preview.Document{Body: out, ContentType: terminalContentType}, nil
}

func (t *Terminal) resolve(opts preview.Options) (string, int, error) {
	style, width := t.style, t.width
	if v, ok := opts.Extra["style"]; ok {
		s, err := cast.ToStringE(v)
		if err != nil {
			return "", 0, &preview.OptionError{Field: "style", Err: err}
		}
		if s != "" {
			if _, known := styles.DefaultStyles[s]; !known {
				return "", 0, &preview.OptionError{Field: "style", Err: fmt.Errorf("unknown style %q", s)}
			}
			style = s
		}
	}
	if v, ok := opts.Extra["wordWrap"]; ok {
		w, err := cast.ToIntE(v)
		if err != nil {
			return "", 0, &preview.OptionError{Field: "wordWrap", Err: err}
		}
		if w < 0 || w > maxTerminalWidth {
			return "", 0, &preview.OptionError{Field: "wordWrap", Err: fmt.Errorf("must be between 0 and %d", maxTerminalWidth)}
		}
		if w > 0 {
			width = w
		}
	}
	return style, width, nil
}

func poolKey(style string, width int) string {
	return fmt.Sprintf("%s:%d", style, width)
}

func (t *Terminal) pool(style string, width int) *sync.Pool {
	key := poolKey(style, width)

	t.mu.RLock()
	if p, ok := t.pools[key]; ok {
		t.mu.RUnlock()
		return p
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.pools[key]; ok {
		return p
	}
	p := &sync.Pool{
		New: func() interface{} {
			r, err := newTermRenderer(style, width)
			if err != nil {
				return nil
			}
			return r
		},
	}
	t.pools[key] = p
	return p
}

func (t *Terminal) get(style string, width int) (*glamour.TermRenderer, error) {
	r := t.pool(style, width).Get()
	if r == nil {
		// Pool's New failed; build directly to surface the error.
		return newTermRenderer(style, width)
	}
	return r.(*glamour.TermRenderer), nil
}

func (t *Terminal) put(style string, width int, r *glamour.TermRenderer) {
	if r == nil {
		return
	}
	t.pool(style, width).Put(r)
}

// Pools reports the number of distinct style/width pools.
func (t *Terminal) Pools() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pools)
}

func newTermRenderer(style string, width int) (*glamour.TermRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("create terminal renderer: %w", err)
	}
	return r, nil
}
