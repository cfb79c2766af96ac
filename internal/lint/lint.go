// Package lint checks Markdown sources against a style preset and reports the
// findings in vfile-reporter or SARIF form.
package lint

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Source is attached to every message produced by this package.
const Source = "remark-lint"

// Message is one finding. EndLine is zero for point messages.
type Message struct {
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"endLine,omitempty"`
	EndColumn int    `json:"endColumn,omitempty"`
	Reason    string `json:"reason"`
	RuleID    string `json:"ruleId"`
	Source    string `json:"source"`
	Fatal     bool   `json:"fatal"`
}

// Position formats the message location as "L:C" or "L:C-L:C".
func (m Message) Position() string {
	if m.EndLine == 0 {
		return fmt.Sprintf("%d:%d", m.Line, m.Column)
	}
	return fmt.Sprintf("%d:%d-%d:%d", m.Line, m.Column, m.EndLine, m.EndColumn)
}

func (m Message) String() string {
	return fmt.Sprintf("%s %s %s", m.Position(), m.Reason, m.RuleID)
}

// File is a processed document and its messages, sorted by position.
type File struct {
	Path     string    `json:"path"`
	Messages []Message `json:"messages"`
}

// Counts returns the number of fatal and non-fatal messages.
func (f *File) Counts() (errors, warnings int) {
	for _, m := range f.Messages {
		if m.Fatal {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}

// Rule inspects a parsed document.
type Rule struct {
	ID    string
	Check func(c *Context)
}

// Preset is a named, ordered set of rules.
type Preset struct {
	Name  string
	Rules []Rule
}

// Context is handed to each rule.
type Context struct {
	Source []byte
	Doc    ast.Node

	lines  *lines
	ruleID string
	file   *File
}

// Warn records a point message.
func (c *Context) Warn(line, column int, reason string) {
	c.file.Messages = append(c.file.Messages, Message{
		Line: line, Column: column,
		Reason: reason, RuleID: c.ruleID, Source: Source,
	})
}

// WarnRange records a message spanning source offsets [start, stop).
func (c *Context) WarnRange(start, stop int, reason string) {
	l, col := c.lines.position(start)
	el, ecol := c.lines.position(stop)
	c.file.Messages = append(c.file.Messages, Message{
		Line: l, Column: col, EndLine: el, EndColumn: ecol,
		Reason: reason, RuleID: c.ruleID, Source: Source,
	})
}

var mdParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// Process lints src. An empty path is reported as <stdin>.
func (p Preset) Process(path string, src []byte) *File {
	file := &File{Path: path, Messages: []Message{}}
	ctx := &Context{
		Source: src,
		Doc:    mdParser.Parse(text.NewReader(src)),
		lines:  newLines(src),
		file:   file,
	}
	for _, r := range p.Rules {
		ctx.ruleID = r.ID
		r.Check(ctx)
	}
	sortMessages(file.Messages)
	return file
}

// ProcessString is Process for in-memory text.
func (p Preset) ProcessString(path, src string) *File {
	return p.Process(path, []byte(src))
}

// Ranges sort before points that start at the same place.
func sortMessages(ms []Message) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.EndLine != 0 && b.EndLine == 0
	})
}

type lines struct {
	src    []byte
	starts []int
}

func newLines(src []byte) *lines {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lines{src: src, starts: starts}
}

func (l *lines) count() int {
	n := len(l.starts)
	if n > 1 && l.starts[n-1] == len(l.src) {
		n--
	}
	return n
}

// position maps an offset to a 1-based line and column.
func (l *lines) position(offset int) (int, int) {
	i := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - l.starts[i] + 1
}

// line returns the content of 1-based line n without its newline.
func (l *lines) line(n int) []byte {
	if n < 1 || n > len(l.starts) {
		return nil
	}
	start := l.starts[n-1]
	end := len(l.src)
	if n < len(l.starts) {
		end = l.starts[n]
	}
	return bytes.TrimRight(l.src[start:end], "\r\n")
}

func (l *lines) lineOf(offset int) int {
	n, _ := l.position(offset)
	return n
}
