package markdown

import (
	"fmt"

	terminal "github.com/buildkite/terminal-to-html/v3"

	"github.com/lucasew/markdown-input/internal/preview"
)

// TerminalHTML shows the terminal rendering in a browser: glamour's ANSI
// output is converted to HTML spans with term-* classes.
type TerminalHTML struct {
	term *Terminal
}

func NewTerminalHTML(term *Terminal) *TerminalHTML {
	return &TerminalHTML{term: term}
}

// Render implements preview.Backend.
func (h *TerminalHTML) Render(text string, opts preview.Options) (preview.Document, error) {
	doc, err := h.term.Render(text, opts)
	if err != nil {
		return preview.Document{}, err
	}
	body := fmt.Sprintf(`<pre class="term-container">%s</pre>`, terminal.Render([]byte(doc.Body)))
	return preview.Document{Body: body, ContentType: htmlContentType}, nil
}
