package preview

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures what the component forwards to its backend.
type recorder struct {
	calls []Options
	texts []string
}

func (r *recorder) Render(text string, opts Options) (Document, error) {
	r.calls = append(r.calls, opts)
	r.texts = append(r.texts, text)
	return Document{Body: "<p>" + text + "</p>", ContentType: "text/html"}, nil
}

func (r *recorder) last() Options { return r.calls[len(r.calls)-1] }

func TestSkipHTMLSuppressesEscape(t *testing.T) {
	for _, escape := range []bool{true, false} {
		rec := &recorder{}
		c := New(rec)
		_, err := c.Render("<b>x</b>", &Overrides{SkipHTML: Bool(true), EscapeHTML: Bool(escape)})
		require.NoError(t, err)
		assert.True(t, rec.last().SkipHTML)
		assert.False(t, rec.last().EscapeHTML, "escape=%v", escape)
	}
}

func TestEscapeHTMLKeptWhenNotSkipping(t *testing.T) {
	tests := []struct {
		name string
		o    *Overrides
	}{
		{"skip false", &Overrides{SkipHTML: Bool(false), EscapeHTML: Bool(true)}},
		{"skip absent", &Overrides{EscapeHTML: Bool(true)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			_, err := New(rec).Render("", tt.o)
			require.NoError(t, err)
			assert.True(t, rec.last().EscapeHTML)
		})
	}
}

func TestAbsentFlagsFallBackToDefaults(t *testing.T) {
	rec := &recorder{}
	c := New(rec)
	res, err := c.Render("x", &Overrides{Extra: map[string]any{"other": 1}})
	require.NoError(t, err)

	want := Effective(DefaultOptions())
	assert.Equal(t, want.SkipHTML, res.Options.SkipHTML)
	assert.Equal(t, want.EscapeHTML, res.Options.EscapeHTML)
	assert.Equal(t, 1, rec.last().Extra["other"])
}

func TestRenderIsIdempotent(t *testing.T) {
	rec := &recorder{}
	c := New(rec)
	o := &Overrides{SkipHTML: Bool(false), DisallowedTypes: []string{"image"}, Extra: map[string]any{"k": "v"}}

	a, err := c.Render("same", o)
	require.NoError(t, err)
	b, err := c.Render("same", o)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, rec.calls[0], rec.calls[1])
}

func TestRenderNoArgumentsMatchesDefaults(t *testing.T) {
	rec := &recorder{}
	c := New(rec)

	a, err := c.Render("", nil)
	require.NoError(t, err)
	defaults := c.Defaults()
	b, err := c.Render("", &Overrides{
		SkipHTML:   Bool(defaults.SkipHTML),
		EscapeHTML: Bool(defaults.EscapeHTML),
		GFM:        Bool(defaults.GFM),
		MDX:        Bool(defaults.MDX),
	})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "", rec.texts[0])
}

func TestExtraFlagsPassThrough(t *testing.T) {
	rec := &recorder{}
	_, err := New(rec).Render("t", &Overrides{
		SkipHTML:   Bool(false),
		EscapeHTML: Bool(true),
		Extra:      map[string]any{"customFlag": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "x", rec.last().Extra["customFlag"])
	assert.True(t, rec.last().EscapeHTML)
}

func TestMergeDoesNotAliasDefaults(t *testing.T) {
	defaults := DefaultOptions().WithExtra("a", 1)
	defaults.DisallowedTypes = []string{"image"}

	out := Merge(&Overrides{Extra: map[string]any{"b": 2}}, defaults)
	out.DisallowedTypes[0] = "heading"

	assert.Equal(t, "image", defaults.DisallowedTypes[0])
	_, leaked := defaults.Extra["b"]
	assert.False(t, leaked)
	assert.Equal(t, 1, out.Extra["a"])
	assert.Equal(t, 2, out.Extra["b"])
}

func TestWithDefaults(t *testing.T) {
	rec := &recorder{}
	custom := DefaultOptions().WithSkipHTML(true).WithLinkTarget("_blank")
	c := New(rec, WithDefaults(custom))

	_, err := c.Render("x", nil)
	require.NoError(t, err)
	assert.True(t, rec.last().SkipHTML)
	assert.False(t, rec.last().EscapeHTML)
	assert.Equal(t, "_blank", rec.last().LinkTarget)
	assert.Equal(t, custom.EscapeHTML, c.Defaults().EscapeHTML)
}

func TestBackendErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	c := New(BackendFunc(func(string, Options) (Document, error) {
		return Document{}, boom
	}))
	_, err := c.Render("x", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
