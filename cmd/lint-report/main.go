// Command lint-report runs the markdown style guide preset over a fixed sample
// and prints the findings. Findings do not change the exit status.
package main

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/lucasew/markdown-input/internal/lint"
)

const sample = "_Hello world_"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(os.Stdout, term.IsTerminal(int(os.Stdout.Fd()))); err != nil {
		logger.Error("execution failed", "error", err)
		os.Exit(1)
	}
}

func run(w io.Writer, color bool) error {
	file := lint.MarkdownStyleGuide().ProcessString("", sample)
	return lint.Report(w, lint.ReportOptions{Color: color}, file)
}
