package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lucasew/markdown-input/internal/lint"
)

var lintCmd = &cobra.Command{
	Use:   "lint [files...]",
	Short: "Check Markdown files against the markdown style guide preset",
	RunE:  runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().String("format", "text", "output format: text, json or sarif")
	lintCmd.Flags().String("color", "auto", "color output: auto, always or never")
	lintCmd.Flags().BoolP("quiet", "q", false, "hide files without messages")
	lintCmd.Flags().Bool("frail", false, "fail on warnings too")
}

func runLint(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	colorMode, _ := cmd.Flags().GetString("color")
	quiet, _ := cmd.Flags().GetBool("quiet")
	frail, _ := cmd.Flags().GetBool("frail")

	preset := lint.MarkdownStyleGuide()
	var files []*lint.File
	if len(args) == 0 {
		_, src, err := readSource(nil, cmd.InOrStdin())
		if err != nil {
			return err
		}
		files = append(files, preset.ProcessString("", src))
	}
	for _, path := range args {
		_, src, err := readSource([]string{path}, cmd.InOrStdin())
		if err != nil {
			return err
		}
		files = append(files, preset.ProcessString(path, src))
	}

	out := cmd.OutOrStdout()
	switch format {
	case "text":
		color, err := useColor(colorMode, out)
		if err != nil {
			return err
		}
		if err := lint.Report(out, lint.ReportOptions{Color: color, Quiet: quiet}, files...); err != nil {
			return err
		}
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(files); err != nil {
			return err
		}
	case "sarif":
		data, err := preset.MarshalSARIF(files...)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, string(data)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	errs, warns := 0, 0
	for _, f := range files {
		e, w := f.Counts()
		errs += e
		warns += w
	}
	if errs > 0 || (frail && warns > 0) {
		return fmt.Errorf("lint failed: %d errors, %d warnings", errs, warns)
	}
	return nil
}

func useColor(mode string, out io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := out.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("unknown color mode %q", mode)
	}
}
