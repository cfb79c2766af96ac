// Package preview presents a stable rendering contract to a host editor,
// independent of the Markdown renderer plugged in underneath.
package preview

import "fmt"

// Document is what a backend produces for one piece of source text.
type Document struct {
	Body        string         `json:"body"`
	ContentType string         `json:"contentType"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// Result is a rendered document plus the effective options that produced it.
type Result struct {
	Document
	Options Options `json:"options"`
}

// Backend is the external renderer. It receives effective options and must
// not retain them.
type Backend interface {
	Render(text string, opts Options) (Document, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(text string, opts Options) (Document, error)

func (f BackendFunc) Render(text string, opts Options) (Document, error) {
	return f(text, opts)
}

// Component forwards text and options to a Backend, resolving defaults and
// the derived escape flag. It holds no per-call state and is safe for
// concurrent use.
type Component struct {
	backend  Backend
	defaults Options
}

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// WithDefaults replaces the built-in default options.
func WithDefaults(o Options) ComponentOption {
	return func(c *Component) {
		c.defaults = o.Clone()
	}
}

func New(backend Backend, opts ...ComponentOption) *Component {
	c := &Component{
		backend:  backend,
		defaults: DefaultOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Defaults returns a copy of the component's default options, for callers
// that want to layer their own overrides on top.
func (c *Component) Defaults() Options {
	return c.defaults.Clone()
}

// Resolve merges o over the defaults and applies the derived escape flag.
func (c *Component) Resolve(o *Overrides) Options {
	return Effective(Merge(o, c.defaults))
}

// Render renders text with o layered over the defaults. A nil o means the
// defaults.
func (c *Component) Render(text string, o *Overrides) (Result, error) {
	eff := c.Resolve(o)
	doc, err := c.backend.Render(text, eff.Clone())
	if err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}
	return Result{Document: doc, Options: eff}, nil
}

// RenderRequest renders a decoded request.
func (c *Component) RenderRequest(req RenderRequest) (Result, error) {
	return c.Render(req.Text, req.Options)
}
