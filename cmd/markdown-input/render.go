package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucasew/markdown-input/internal/preview"
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render a Markdown/MDX file (or stdin) as HTML or terminal output",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("preview.backend", "html", "output format: html, term or termhtml")
	renderCmd.Flags().String("terminal.style", "dark", "glamour style for term output")
	renderCmd.Flags().Int("terminal.width", 80, "word wrap column for term output")
	renderCmd.Flags().String("options", "", `render options as a JSON object, e.g. '{"skipHtml":true}'`)
	renderCmd.Flags().Bool("json", false, "print the full result as JSON")
	for _, key := range []string{"preview.backend", "terminal.style", "terminal.width"} {
		_ = viper.BindPFlag(key, renderCmd.Flags().Lookup(key))
	}
}

func readSource(args []string, stdin io.Reader) (string, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "", string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", err
	}
	return args[0], string(data), nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var overrides *preview.Overrides
	if raw, _ := cmd.Flags().GetString("options"); raw != "" {
		overrides = &preview.Overrides{}
		if err := json.Unmarshal([]byte(raw), overrides); err != nil {
			return fmt.Errorf("--options: %w", err)
		}
	}

	component, err := newRenderers(cfg).For(cfg.Preview.Backend)
	if err != nil {
		return err
	}

	_, text, err := readSource(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	res, err := component.Render(text, overrides)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = io.WriteString(out, res.Body)
	return err
}
