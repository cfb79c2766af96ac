package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/lucasew/markdown-input/internal/preview"
)

var settingsKey = parser.NewContextKey()

// settings are the per-call options applied to the parsed tree.
type settings struct {
	linkTarget []byte
	sourcePos  bool
	disallowed []string
	unwrap     bool
}

func settingsFor(o preview.Options) *settings {
	s := &settings{
		sourcePos:  o.SourcePos,
		disallowed: o.DisallowedTypes,
		unwrap:     o.UnwrapDisallowed,
	}
	if o.LinkTarget != "" {
		s.linkTarget = []byte(o.LinkTarget)
	}
	return s
}

// typeNames maps goldmark kinds to the mdast node type names host editors
// use in disallowedTypes.
var typeNames = map[ast.NodeKind]string{
	ast.KindParagraph:        "paragraph",
	ast.KindHeading:          "heading",
	ast.KindThematicBreak:    "thematicBreak",
	ast.KindBlockquote:       "blockquote",
	ast.KindList:             "list",
	ast.KindListItem:         "listItem",
	ast.KindCodeBlock:        "code",
	ast.KindFencedCodeBlock:  "code",
	ast.KindHTMLBlock:        "html",
	ast.KindRawHTML:          "html",
	ast.KindCodeSpan:         "inlineCode",
	ast.KindLink:             "link",
	ast.KindAutoLink:         "link",
	ast.KindImage:            "image",
	ast.KindText:             "text",
	extast.KindStrikethrough: "delete",
	extast.KindTable:         "table",
	extast.KindTableHeader:   "tableHead",
	extast.KindTableRow:      "tableRow",
	extast.KindTableCell:     "tableCell",
	extast.KindTaskCheckBox:  "checkbox",
	extast.KindFootnote:      "footnoteDefinition",
	extast.KindFootnoteLink:  "footnoteReference",
	KindESM:                  "esm",
}

// typeName returns the mdast type name of n. Kinds without one keep their
// goldmark name.
func typeName(n ast.Node) string {
	if e, ok := n.(*ast.Emphasis); ok {
		if e.Level >= 2 {
			return "strong"
		}
		return "emphasis"
	}
	if name, ok := typeNames[n.Kind()]; ok {
		return name
	}
	return n.Kind().String()
}

func (s *settings) isDisallowed(n ast.Node) bool {
	name := typeName(n)
	for _, d := range s.disallowed {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}

type previewTransformer struct{}

func (t *previewTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	s, ok := pc.Get(settingsKey).(*settings)
	if !ok || s == nil {
		return
	}

	var (
		removals []ast.Node
		blocks   []ast.Node
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() == ast.KindDocument {
			return ast.WalkContinue, nil
		}
		if len(s.disallowed) > 0 && s.isDisallowed(n) {
			removals = append(removals, n)
		}
		if s.linkTarget != nil && (n.Kind() == ast.KindLink || n.Kind() == ast.KindAutoLink) {
			n.SetAttributeString("target", s.linkTarget)
		}
		if s.sourcePos && n.Type() == ast.TypeBlock {
			blocks = append(blocks, n)
		}
		return ast.WalkContinue, nil
	})

	if len(blocks) > 0 {
		idx := newLineIndex(reader.Source())
		for _, n := range blocks {
			if start, stop, ok := span(n, reader.Source()); ok {
				n.SetAttributeString("data-sourcepos", []byte(idx.rangeString(reader.Source(), start, stop)))
			}
		}
	}

	for _, n := range removals {
		parent := n.Parent()
		if parent == nil {
			continue
		}
		if s.unwrap {
			for c := n.FirstChild(); c != nil; c = n.FirstChild() {
				n.RemoveChild(n, c)
				parent.InsertBefore(parent, n, c)
			}
		}
		parent.RemoveChild(parent, n)
	}
}

// span returns the source byte range of a block. The range starts at the
// block's marker (`#`, `>`, list bullet or code fence) when it has one.
func span(n ast.Node, source []byte) (int, int, bool) {
	var start, stop int
	found := false
	if n.Type() == ast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			start, stop, found = lines.At(0).Start, lines.At(lines.Len()-1).Stop, true
		}
	}
	fromLines := found
	for c := n.FirstChild(); c != nil && !fromLines; c = c.NextSibling() {
		var cs, ce int
		var ok bool
		if t, isText := c.(*ast.Text); isText {
			cs, ce, ok = t.Segment.Start, t.Segment.Stop, true
		} else {
			cs, ce, ok = span(c, source)
		}
		if !ok {
			continue
		}
		if !found || cs < start {
			start = cs
		}
		if !found || ce > stop {
			stop = ce
		}
		found = true
	}
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		return fenceSpan(fenced, source, start, stop, found)
	}
	if !found {
		return 0, 0, false
	}
	return markerStart(n.Kind(), source, start), stop, true
}

// markerStart walks back from the first content byte over the block's
// marker. Blocks without a marker start at their content.
func markerStart(kind ast.NodeKind, source []byte, start int) int {
	i := start
	for i > 0 && (source[i-1] == ' ' || source[i-1] == '\t') {
		i--
	}
	j := i
	switch kind {
	case ast.KindHeading:
		for j > 0 && source[j-1] == '#' {
			j--
		}
	case ast.KindBlockquote:
		if j > 0 && source[j-1] == '>' {
			j--
		}
	case ast.KindListItem:
		if j > 0 && strings.IndexByte("-*+", source[j-1]) >= 0 {
			j--
		} else if j > 0 && (source[j-1] == '.' || source[j-1] == ')') {
			k := j - 1
			for k > 0 && source[k-1] >= '0' && source[k-1] <= '9' {
				k--
			}
			if k < j-1 {
				j = k
			}
		}
	}
	if j == i {
		return start
	}
	return j
}

// fenceSpan widens a fenced code block to its opening and closing fences.
func fenceSpan(n *ast.FencedCodeBlock, source []byte, start, stop int, found bool) (int, int, bool) {
	open := -1
	switch {
	case n.Info != nil:
		open = n.Info.Segment.Start
	case found:
		open = start - 1
	}
	if open < 0 {
		return 0, 0, false
	}
	for open > 0 && source[open-1] != '\n' {
		open--
	}
	for open < len(source) && (source[open] == ' ' || source[open] == '\t') {
		open++
	}
	if !found {
		stop = open
		for stop < len(source) && source[stop] != '\n' {
			stop++
		}
		if stop < len(source) {
			stop++
		}
	}
	end := stop
	for end < len(source) && (source[end] == ' ' || source[end] == '\t') {
		end++
	}
	if end < len(source) && (source[end] == '`' || source[end] == '~') {
		for end < len(source) && source[end] != '\n' {
			end++
		}
		stop = end
	}
	return open, stop, true
}

// lineIndex maps byte offsets to 1-based line and column numbers.
type lineIndex []int

func newLineIndex(source []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range source {
		if b == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (idx lineIndex) position(offset int) (int, int) {
	line := sort.Search(len(idx), func(i int) bool { return idx[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return line + 1, offset - idx[line] + 1
}

// rangeString formats [start, stop) as "L:C-L:C". Like unist positions, the
// end column points one past the last character.
func (idx lineIndex) rangeString(source []byte, start, stop int) string {
	for stop > start && (source[stop-1] == '\n' || source[stop-1] == '\r') {
		stop--
	}
	sl, sc := idx.position(start)
	el, ec := idx.position(stop)
	return fmt.Sprintf("%d:%d-%d:%d", sl, sc, el, ec)
}
