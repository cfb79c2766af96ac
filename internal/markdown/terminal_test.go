package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasew/markdown-input/internal/preview"
)

func TestTerminalRender(t *testing.T) {
	term := NewTerminal("ascii", 40)
	doc, err := term.Render("# Hello\n\n_world_", preview.Options{})
	require.NoError(t, err)
	assert.Contains(t, doc.Body, "Hello")
	assert.Contains(t, doc.Body, "world")
	assert.Equal(t, terminalContentType, doc.ContentType)
}

func TestTerminalDefaults(t *testing.T) {
	term := NewTerminal("", 0)
	assert.Equal(t, DefaultTerminalStyle, term.style)
	assert.Equal(t, DefaultTerminalWidth, term.width)
}

func TestTerminalExtraOptions(t *testing.T) {
	term := NewTerminal("ascii", 40)

	opts := preview.Options{}.WithExtra("style", "notty").WithExtra("wordWrap", float64(60))
	style, width, err := term.resolve(opts)
	require.NoError(t, err)
	assert.Equal(t, "notty", style)
	assert.Equal(t, 60, width)

	_, err = term.Render("x", opts)
	require.NoError(t, err)
	_, err = term.Render("x", preview.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, term.Pools())
}

func TestTerminalRejectsBadExtra(t *testing.T) {
	term := NewTerminal("ascii", 40)
	tests := []struct {
		name string
		opts preview.Options
	}{
		{"unknown style", preview.Options{}.WithExtra("style", "/etc/passwd")},
		{"width not a number", preview.Options{}.WithExtra("wordWrap", "wide")},
		{"width too large", preview.Options{}.WithExtra("wordWrap", 100000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := term.Render("x", tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, preview.ErrInvalidOptions)
		})
	}
}

func TestTerminalThroughComponent(t *testing.T) {
	c := preview.New(NewTerminal("ascii", 80))
	res, err := c.Render("**bold**", &preview.Overrides{Extra: map[string]any{"wordWrap": 20}})
	require.NoError(t, err)
	assert.Contains(t, res.Body, "bold")
	assert.Equal(t, 20, res.Options.Extra["wordWrap"])
}

func TestTerminalHTML(t *testing.T) {
	h := NewTerminalHTML(NewTerminal("dark", 40))
	doc, err := h.Render("**bold** <script>x</script>", preview.Options{})
	require.NoError(t, err)
	assert.Equal(t, htmlContentType, doc.ContentType)
	assert.True(t, strings.HasPrefix(doc.Body, `<pre class="term-container">`))
	assert.Contains(t, doc.Body, "bold")
	assert.Contains(t, doc.Body, "<span")
	assert.NotContains(t, doc.Body, "\x1b[")
	assert.NotContains(t, doc.Body, "<script>")
}
