package markdown

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/lucasew/markdown-input/internal/preview"
)

const htmlContentType = "text/html; charset=utf-8"

// instanceKey holds the option fields that change how a goldmark instance
// is built. Per-call settings travel in the parser context instead.
type instanceKey struct {
	gfm         bool
	hardWraps   bool
	mdx         bool
	frontmatter bool
	highlight   bool
	emoji       bool
	raw         rawHTMLMode
}

func keyFor(o preview.Options) instanceKey {
	return instanceKey{
		gfm:         o.GFM,
		hardWraps:   o.HardWraps,
		mdx:         o.MDX,
		frontmatter: o.Frontmatter,
		highlight:   o.Highlight,
		emoji:       o.Emoji,
		raw:         rawModeFor(o),
	}
}

// HTML renders Markdown/MDX to HTML with goldmark. Instances are built once
// per distinct instanceKey and shared; goldmark.Markdown is safe for
// concurrent Convert calls.
type HTML struct {
	mu        sync.RWMutex
	instances map[instanceKey]goldmark.Markdown
	policy    *bluemonday.Policy
}

// NewHTML creates an HTML backend.
func NewHTML() *HTML {
	return &HTML{
		instances: make(map[instanceKey]goldmark.Markdown),
		policy:    newPolicy(),
	}
}

// newPolicy extends the UGC policy with what the preview emits itself:
// highlight classes, source positions and link targets.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	return p
}

// Render implements preview.Backend.
func (h *HTML) Render(text string, opts preview.Options) (preview.Document, error) {
	md := h.instance(keyFor(opts))

	pc := parser.NewContext()
	pc.Set(settingsKey, settingsFor(opts))

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf, parser.WithContext(pc)); err != nil {
		return preview.Document{}, fmt.Errorf("convert markdown: %w", err)
	}

	body := buf.Bytes()
	if opts.Sanitize {
		body = h.policy.SanitizeBytes(body)
	}

	doc := preview.Document{Body: string(body), ContentType: htmlContentType}
	if opts.Frontmatter {
		if m := meta.Get(pc); len(m) > 0 {
			doc.Meta = normalizeMeta(m)
		}
	}
	return doc, nil
}

// Instances reports how many goldmark instances are cached.
func (h *HTML) Instances() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.instances)
}

func (h *HTML) instance(key instanceKey) goldmark.Markdown {
	h.mu.RLock()
	if md, ok := h.instances[key]; ok {
		h.mu.RUnlock()
		return md
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if md, ok := h.instances[key]; ok {
		return md
	}
	md := build(key)
	h.instances[key] = md
	return md
}

func build(key instanceKey) goldmark.Markdown {
	exts := []goldmark.Extender{&rawHTML{mode: key.raw}}
	if key.gfm {
		exts = append(exts, extension.GFM)
	}
	if key.mdx {
		exts = append(exts, MDX)
	}
	if key.frontmatter {
		exts = append(exts, meta.Meta)
	}
	if key.highlight {
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		))
	}
	if key.emoji {
		exts = append(exts, emoji.Emoji)
	}

	rendererOpts := []renderer.Option{html.WithXHTML()}
	if key.hardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(&previewTransformer{}, 500)),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

// normalizeMeta converts YAML maps keyed by interface{} so the metadata can
// be encoded as JSON.
func normalizeMeta(m map[string]interface{}) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case map[string]interface{}:
		return normalizeMeta(t)
	case []interface{}:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	default:
		return v
	}
}

var (
	defaultOnce    sync.Once
	defaultBackend *HTML
)

// Render converts markdown source to sanitized HTML using the default
// preview options.
func Render(source string) template.HTML {
	defaultOnce.Do(func() {
		defaultBackend = NewHTML()
	})
	doc, err := defaultBackend.Render(source, preview.Effective(preview.DefaultOptions()))
	if err != nil {
		// Fallback to plain text if markdown rendering fails
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(doc.Body)
}
