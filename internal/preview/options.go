package preview

import (
	"maps"
	"slices"
)

// Options is a fully resolved set of rendering flags. JSON keys follow the
// names host editors already send.
//
// DisallowedTypes names mdast node types ("paragraph", "emphasis", "strong",
// "inlineCode", "html", "link" and so on), matched case-insensitively.
type Options struct {
	SkipHTML         bool     `json:"skipHtml"`
	EscapeHTML       bool     `json:"escapeHtml"`
	LinkTarget       string   `json:"linkTarget,omitempty"`
	SourcePos        bool     `json:"sourcePos"`
	DisallowedTypes  []string `json:"disallowedTypes,omitempty"`
	UnwrapDisallowed bool     `json:"unwrapDisallowed"`
	GFM              bool     `json:"gfm"`
	HardWraps        bool     `json:"hardWraps"`
	MDX              bool     `json:"mdx"`
	Frontmatter      bool     `json:"frontmatter"`
	Highlight        bool     `json:"highlight"`
	Emoji            bool     `json:"emoji"`
	Sanitize         bool     `json:"sanitize"`

	// Extra holds flags this package does not know about. They reach the
	// backend untouched.
	Extra map[string]any `json:"-"`
}

// DefaultOptions returns the built-in default configuration.
func DefaultOptions() Options {
	return Options{
		SkipHTML:    false,
		EscapeHTML:  true,
		GFM:         true,
		MDX:         true,
		Frontmatter: true,
		Sanitize:    true,
	}
}

// Clone returns a deep copy so callers never share slices or maps.
func (o Options) Clone() Options {
	o.DisallowedTypes = slices.Clone(o.DisallowedTypes)
	if o.Extra != nil {
		o.Extra = maps.Clone(o.Extra)
	}
	return o
}

// WithSkipHTML returns Options with raw HTML skipping enabled/disabled.
func (o Options) WithSkipHTML(enabled bool) Options {
	o.SkipHTML = enabled
	return o
}

// WithEscapeHTML returns Options with raw HTML escaping enabled/disabled.
func (o Options) WithEscapeHTML(enabled bool) Options {
	o.EscapeHTML = enabled
	return o
}

// WithLinkTarget returns Options with the given link target.
func (o Options) WithLinkTarget(target string) Options {
	o.LinkTarget = target
	return o
}

// WithExtra returns Options with an opaque renderer flag set.
func (o Options) WithExtra(key string, value any) Options {
	o = o.Clone()
	if o.Extra == nil {
		o.Extra = make(map[string]any)
	}
	o.Extra[key] = value
	return o
}

// Effective applies the derived escape flag: when raw HTML is already
// skipped, escaping it as well is suppressed. All other fields are copied.
func Effective(o Options) Options {
	out := o.Clone()
	out.EscapeHTML = o.EscapeHTML && !o.SkipHTML
	return out
}

// Overrides is a partial Options as supplied by a caller. Nil fields fall
// back to the defaults in Merge.
type Overrides struct {
	SkipHTML         *bool
	EscapeHTML       *bool
	LinkTarget       *string
	SourcePos        *bool
	DisallowedTypes  []string
	UnwrapDisallowed *bool
	GFM              *bool
	HardWraps        *bool
	MDX              *bool
	Frontmatter      *bool
	Highlight        *bool
	Emoji            *bool
	Sanitize         *bool
	Extra            map[string]any
}

// Merge resolves caller overrides on top of defaults, field by field.
// A nil o yields a copy of defaults. Extra keys from o are layered over the
// defaults' Extra.
func Merge(o *Overrides, defaults Options) Options {
	out := defaults.Clone()
	if o == nil {
		return out
	}
	setBool(&out.SkipHTML, o.SkipHTML)
	setBool(&out.EscapeHTML, o.EscapeHTML)
	setBool(&out.SourcePos, o.SourcePos)
	setBool(&out.UnwrapDisallowed, o.UnwrapDisallowed)
	setBool(&out.GFM, o.GFM)
	setBool(&out.HardWraps, o.HardWraps)
	setBool(&out.MDX, o.MDX)
	setBool(&out.Frontmatter, o.Frontmatter)
	setBool(&out.Highlight, o.Highlight)
	setBool(&out.Emoji, o.Emoji)
	setBool(&out.Sanitize, o.Sanitize)
	if o.LinkTarget != nil {
		out.LinkTarget = *o.LinkTarget
	}
	if o.DisallowedTypes != nil {
		out.DisallowedTypes = slices.Clone(o.DisallowedTypes)
	}
	if len(o.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]any, len(o.Extra))
		}
		maps.Copy(out.Extra, o.Extra)
	}
	return out
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Bool returns a pointer to v, for building Overrides literals.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
