package markdown

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/lucasew/markdown-input/internal/preview"
)

type rawHTMLMode int

const (
	rawPass rawHTMLMode = iota
	rawSkip
	rawEscape
)

func (m rawHTMLMode) String() string {
	switch m {
	case rawSkip:
		return "skip"
	case rawEscape:
		return "escape"
	default:
		return "pass"
	}
}

func rawModeFor(o preview.Options) rawHTMLMode {
	switch {
	case o.SkipHTML:
		return rawSkip
	case o.EscapeHTML:
		return rawEscape
	default:
		return rawPass
	}
}

// rawHTML replaces goldmark's raw HTML rendering. It must sort ahead of the
// stock html renderer (priority 1000) so its funcs win.
type rawHTML struct {
	mode rawHTMLMode
}

func (e *rawHTML) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&rawHTMLRenderer{mode: e.mode}, 100),
	))
}

type rawHTMLRenderer struct {
	mode rawHTMLMode
}

func (r *rawHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindRawHTML, r.renderRawHTML)
	reg.Register(ast.KindHTMLBlock, r.renderHTMLBlock)
}

func (r *rawHTMLRenderer) write(w util.BufWriter, value []byte) {
	switch r.mode {
	case rawSkip:
	case rawEscape:
		_, _ = w.Write(util.EscapeHTML(value))
	default:
		_, _ = w.Write(value)
	}
}

func (r *rawHTMLRenderer) renderRawHTML(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	n := node.(*ast.RawHTML)
	for i := 0; i < n.Segments.Len(); i++ {
		segment := n.Segments.At(i)
		r.write(w, segment.Value(source))
	}
	return ast.WalkSkipChildren, nil
}

func (r *rawHTMLRenderer) renderHTMLBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.HTMLBlock)
	if entering {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			r.write(w, line.Value(source))
		}
		return ast.WalkContinue, nil
	}
	if n.HasClosure() {
		r.write(w, n.ClosureLine.Value(source))
	}
	return ast.WalkContinue, nil
}
