package lint

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark/ast"
)

// MaxLineLength is the wrap column of the style guide preset.
const MaxLineLength = 80

// MarkdownStyleGuide mirrors remark-preset-lint-markdown-style-guide.
func MarkdownStyleGuide() Preset {
	return Preset{
		Name: "markdown-style-guide",
		Rules: []Rule{
			{ID: "final-newline", Check: finalNewline},
			{ID: "emphasis-marker", Check: emphasisMarker(1, "Emphasis")},
			{ID: "strong-marker", Check: emphasisMarker(2, "Strong")},
			{ID: "heading-style", Check: headingStyle},
			{ID: "code-block-style", Check: codeBlockStyle},
			{ID: "fenced-code-marker", Check: fencedCodeMarker},
			{ID: "unordered-list-marker-style", Check: unorderedListMarker},
			{ID: "ordered-list-marker-value", Check: orderedListMarkerValue},
			{ID: "rule-style", Check: ruleStyle},
			{ID: "maximum-line-length", Check: maximumLineLength},
			{ID: "no-consecutive-blank-lines", Check: noConsecutiveBlankLines},
			{ID: "no-duplicate-headings", Check: noDuplicateHeadings},
			{ID: "no-emphasis-as-heading", Check: noEmphasisAsHeading},
		},
	}
}

func finalNewline(c *Context) {
	if len(c.Source) > 0 && c.Source[len(c.Source)-1] != '\n' {
		c.Warn(1, 1, "Missing newline character at end of file")
	}
}

func emphasisMarker(level int, kind string) func(*Context) {
	return func(c *Context) {
		walk(c.Doc, func(n ast.Node) {
			em, ok := n.(*ast.Emphasis)
			if !ok || em.Level != level {
				return
			}
			start, stop, ok := emphasisSpan(em, len(c.Source))
			if ok && c.Source[start] == '_' {
				c.WarnRange(start, stop, kind+" should use `*` as a marker")
			}
		})
	}
}

func headingStyle(c *Context) {
	walk(c.Doc, func(n ast.Node) {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			return
		}
		if !isATX(c, h) {
			line, col := c.headingStart(h)
			c.Warn(line, col, "Headings should use atx")
		}
	})
}

func codeBlockStyle(c *Context) {
	walk(c.Doc, func(n ast.Node) {
		if n.Kind() != ast.KindCodeBlock || n.Lines().Len() == 0 {
			return
		}
		line, col := c.lines.position(n.Lines().At(0).Start)
		c.Warn(line, col, "Code blocks should be fenced")
	})
}

func fencedCodeMarker(c *Context) {
	walk(c.Doc, func(n ast.Node) {
		fc, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return
		}
		line := c.fenceLine(fc)
		if line == 0 {
			return
		}
		content := c.lines.line(line)
		trimmed := bytes.TrimLeft(content, " \t>")
		if len(trimmed) > 0 && trimmed[0] == '~' {
			c.Warn(line, len(content)-len(trimmed)+1, "Fenced code should use ``` as a marker")
		}
	})
}

func unorderedListMarker(c *Context) {
	walk(c.Doc, func(n ast.Node) {
		list, ok := n.(*ast.List)
		if !ok || list.IsOrdered() || list.Marker == '-' {
			return
		}
		for item := list.FirstChild(); item != nil; item = item.NextSibling() {
			if off, ok := c.markerOffset(item); ok {
				line, col := c.lines.position(off)
				c.Warn(line, col, "Marker style should be `-`")
			}
		}
	})
}

func orderedListMarkerValue(c *Context) {
	walk(c.Doc, func(n ast.Node) {
		list, ok := n.(*ast.List)
		if !ok || !list.IsOrdered() {
			return
		}
		for item := list.FirstChild(); item != nil; item = item.NextSibling() {
			off, ok := c.markerOffset(item)
			if !ok {
				continue
			}
			end := off
			for end < len(c.Source) && c.Source[end] >= '0' && c.Source[end] <= '9' {
				end++
			}
			if value := string(c.Source[off:end]); value != "1" {
				line, col := c.lines.position(off)
				c.Warn(line, col, fmt.Sprintf("Marker should be `1`, was `%s`", value))
			}
		}
	})
}

func ruleStyle(c *Context) {
	breaks := 0
	walk(c.Doc, func(n ast.Node) {
		if n.Kind() == ast.KindThematicBreak {
			breaks++
		}
	})
	if breaks == 0 {
		return
	}
	skip := c.excludedLines()
	for n := 1; n <= c.lines.count() && breaks > 0; n++ {
		if skip[n] {
			continue
		}
		content := c.lines.line(n)
		if !isThematicBreak(content) {
			continue
		}
		breaks--
		if string(bytes.TrimSpace(content)) != "---" {
			col := len(content) - len(bytes.TrimLeft(content, " ")) + 1
			c.Warn(n, col, "Rules should use `---`")
		}
	}
}

func maximumLineLength(c *Context) {
	skip := c.excludedLines()
	for n := 1; n <= c.lines.count(); n++ {
		if skip[n] {
			continue
		}
		content := string(c.lines.line(n))
		width := utf8.RuneCountInString(content)
		if width <= MaxLineLength {
			continue
		}
		trimmed := strings.TrimLeft(content, " \t")
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "|") {
			continue
		}
		// A final token that starts inside the limit cannot be wrapped.
		lastSpace := strings.LastIndexAny(strings.TrimRight(content, " \t"), " \t")
		if utf8.RuneCountInString(content[:lastSpace+1]) <= MaxLineLength {
			continue
		}
		c.Warn(n, width+1, fmt.Sprintf("Line must be at most %d characters", MaxLineLength))
	}
}

func noConsecutiveBlankLines(c *Context) {
	skip := c.excludedLines()
	total := c.lines.count()
	run, seenContent := 0, false
	for n := 1; n <= total; n++ {
		blank := !skip[n] && len(bytes.TrimSpace(c.lines.line(n))) == 0
		if blank {
			run++
			continue
		}
		if seenContent && run > 1 {
			c.Warn(n, 1, fmt.Sprintf("Remove %s between nodes", plural(run-1, "line")))
		}
		run, seenContent = 0, true
	}
	if seenContent && run > 0 {
		c.Warn(total-run+1, 1, fmt.Sprintf("Remove %s after node", plural(run, "line")))
	}
}

func noDuplicateHeadings(c *Context) {
	type first struct{ line, col int }
	seen := map[string]first{}
	walk(c.Doc, func(n ast.Node) {
		h, ok := n.(*ast.Heading)
		if !ok {
			return
		}
		txt := strings.ToUpper(strings.TrimSpace(plainText(h, c.Source)))
		if txt == "" {
			return
		}
		key := fmt.Sprintf("%d:%s", h.Level, txt)
		line, col := c.headingStart(h)
		if prev, dup := seen[key]; dup {
			c.Warn(line, col, fmt.Sprintf("Do not use headings with similar content (%d:%d)", prev.line, prev.col))
			return
		}
		seen[key] = first{line, col}
	})
}

func noEmphasisAsHeading(c *Context) {
	walk(c.Doc, func(n ast.Node) {
		if n.Kind() != ast.KindParagraph || n.NextSibling() == nil || n.ChildCount() != 1 {
			return
		}
		em, ok := n.FirstChild().(*ast.Emphasis)
		if !ok {
			return
		}
		if start, stop, ok := emphasisSpan(em, len(c.Source)); ok {
			c.WarnRange(start, stop, "Don’t use emphasis to introduce a section, use a heading")
		}
	})
}

func walk(doc ast.Node, fn func(ast.Node)) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			fn(n)
		}
		return ast.WalkContinue, nil
	})
}

// emphasisSpan finds the source range of an emphasis node including its
// delimiters. Only spans bounded by plain text are located.
func emphasisSpan(em *ast.Emphasis, size int) (int, int, bool) {
	first, ok1 := em.FirstChild().(*ast.Text)
	last, ok2 := em.LastChild().(*ast.Text)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	start := first.Segment.Start - em.Level
	stop := last.Segment.Stop + em.Level
	if start < 0 || stop > size {
		return 0, 0, false
	}
	return start, stop, true
}

func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	walk(n, func(n ast.Node) {
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
	})
	return b.String()
}

func isATX(c *Context, h *ast.Heading) bool {
	content := c.lines.line(c.lines.lineOf(h.Lines().At(0).Start))
	return bytes.HasPrefix(bytes.TrimLeft(content, " \t>"), []byte("#"))
}

func (c *Context) headingStart(h *ast.Heading) (int, int) {
	if h.Lines().Len() == 0 {
		return 1, 1
	}
	line := c.lines.lineOf(h.Lines().At(0).Start)
	content := c.lines.line(line)
	return line, len(content) - len(bytes.TrimLeft(content, " \t")) + 1
}

// fenceLine returns the line of the opening fence, or 0 when unknown.
func (c *Context) fenceLine(fc *ast.FencedCodeBlock) int {
	if fc.Info != nil {
		return c.lines.lineOf(fc.Info.Segment.Start)
	}
	if fc.Lines().Len() > 0 {
		return c.lines.lineOf(fc.Lines().At(0).Start) - 1
	}
	return 0
}

// markerOffset walks back from an item's first content to its list marker.
// For ordered items the offset points at the first digit.
func (c *Context) markerOffset(item ast.Node) (int, bool) {
	child := item.FirstChild()
	if child == nil || child.Lines().Len() == 0 {
		return 0, false
	}
	i := child.Lines().At(0).Start - 1
	for i >= 0 && (c.Source[i] == ' ' || c.Source[i] == '\t') {
		i--
	}
	if i < 0 {
		return 0, false
	}
	switch c.Source[i] {
	case '-', '*', '+':
		return i, true
	case '.', ')':
		j := i
		for j > 0 && c.Source[j-1] >= '0' && c.Source[j-1] <= '9' {
			j--
		}
		return j, j < i
	}
	return 0, false
}

// excludedLines marks lines owned by code, HTML blocks and setext
// underlines, which the line-based rules ignore.
func (c *Context) excludedLines() map[int]bool {
	out := map[int]bool{}
	mark := func(n ast.Node) (first, last int) {
		ls := n.Lines()
		for i := 0; i < ls.Len(); i++ {
			line := c.lines.lineOf(ls.At(i).Start)
			out[line] = true
			if first == 0 {
				first = line
			}
			last = line
		}
		return first, last
	}
	walk(c.Doc, func(n ast.Node) {
		switch n := n.(type) {
		case *ast.FencedCodeBlock:
			open := c.fenceLine(n)
			if open > 0 {
				out[open] = true
			}
			_, last := mark(n)
			if last == 0 {
				last = open
			}
			if closing := last + 1; isFence(c.lines.line(closing)) {
				out[closing] = true
			}
		case *ast.CodeBlock, *ast.HTMLBlock:
			mark(n)
		case *ast.Heading:
			if n.Lines().Len() > 0 && !isATX(c, n) {
				_, last := mark(n)
				out[last+1] = true
			}
		}
	})
	return out
}

func isFence(line []byte) bool {
	t := bytes.TrimLeft(line, " \t>")
	return bytes.HasPrefix(t, []byte("```")) || bytes.HasPrefix(t, []byte("~~~"))
}

func isThematicBreak(line []byte) bool {
	indent := len(line) - len(bytes.TrimLeft(line, " "))
	if indent > 3 {
		return false
	}
	var marker byte
	count := 0
	for _, b := range line[indent:] {
		switch b {
		case ' ', '\t':
			continue
		case '-', '*', '_':
			if marker == 0 {
				marker = b
			} else if b != marker {
				return false
			}
			count++
		default:
			return false
		}
	}
	return count >= 3
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
