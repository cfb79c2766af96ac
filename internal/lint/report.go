package lint

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/termenv"
)

// ReportOptions tunes the text reporter.
type ReportOptions struct {
	// Color enables ANSI styling.
	Color bool
	// Quiet hides files without messages.
	Quiet bool
}

type styles struct {
	file, warning, fatal, rule func(string) string
}

func render(st lipgloss.Style) func(string) string {
	return func(s string) string { return st.Render(s) }
}

func newStyles(color bool) styles {
	if !color {
		plain := func(s string) string { return s }
		return styles{plain, plain, plain, plain}
	}
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return styles{
		file:    render(r.NewStyle().Underline(true)),
		warning: render(r.NewStyle().Foreground(lipgloss.Color("3"))),
		fatal:   render(r.NewStyle().Foreground(lipgloss.Color("1"))),
		rule:    render(r.NewStyle().Faint(true)),
	}
}

// Report writes files in vfile-reporter layout.
func Report(w io.Writer, opts ReportOptions, files ...*File) error {
	_, err := io.WriteString(w, FormatReport(opts, files...))
	return err
}

// FormatReport renders files in vfile-reporter layout: a header per file,
// aligned message rows, and a summary line.
func FormatReport(opts ReportOptions, files ...*File) string {
	st := newStyles(opts.Color)

	type row struct{ pos, label, reason, rule, source string }
	var b strings.Builder
	var widths [4]int
	totalErrors, totalWarnings := 0, 0
	rowsByFile := make([][]row, len(files))
	for i, f := range files {
		for _, m := range f.Messages {
			label := st.warning("warning")
			if m.Fatal {
				label = st.fatal("error")
			}
			r := row{m.Position(), label, m.Reason, st.rule(m.RuleID), m.Source}
			for k, cell := range []string{r.pos, r.label, r.reason, r.rule} {
				widths[k] = max(widths[k], width(cell))
			}
			rowsByFile[i] = append(rowsByFile[i], r)
		}
		e, w := f.Counts()
		totalErrors += e
		totalWarnings += w
	}

	first := true
	for i, f := range files {
		rows := rowsByFile[i]
		if len(rows) == 0 && opts.Quiet {
			continue
		}
		if !first {
			b.WriteString("\n")
		}
		first = false

		name := st.file(displayPath(f.Path))
		if len(rows) == 0 {
			fmt.Fprintf(&b, "%s: no issues found\n", name)
			continue
		}
		b.WriteString(name)
		b.WriteString("\n")
		for _, r := range rows {
			line := "  " + padLeft(r.pos, widths[0]) +
				"  " + padding.String(r.label, uint(widths[1])) +
				"  " + padding.String(r.reason, uint(widths[2])) +
				"  " + padding.String(r.rule, uint(widths[3])) +
				"  " + r.source
			b.WriteString(strings.TrimRight(line, " "))
			b.WriteString("\n")
		}
	}

	if summary := summarize(st, totalErrors, totalWarnings); summary != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(summary)
		b.WriteString("\n")
	}
	return b.String()
}

func summarize(st styles, errs, warns int) string {
	var parts []string
	if errs > 0 {
		parts = append(parts, st.fatal("✖")+" "+plural(errs, "error"))
	}
	if warns > 0 {
		parts = append(parts, st.warning("⚠")+" "+plural(warns, "warning"))
	}
	return strings.Join(parts, ", ")
}

func displayPath(p string) string {
	if p == "" {
		return "<stdin>"
	}
	return p
}

func width(s string) int {
	return ansi.PrintableRuneWidth(s)
}

func padLeft(s string, w int) string {
	if n := width(s); n < w {
		return strings.Repeat(" ", w-n) + s
	}
	return s
}
