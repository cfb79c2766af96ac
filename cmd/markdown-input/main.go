package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucasew/markdown-input/internal/bundle"
	"github.com/lucasew/markdown-input/internal/config"
	"github.com/lucasew/markdown-input/internal/markdown"
	"github.com/lucasew/markdown-input/internal/preview"
	"github.com/lucasew/markdown-input/internal/server"
)

var (
	cfgFile string
	logger  *slog.Logger
	initErr error
)

var rootCmd = &cobra.Command{
	Use:           "markdown-input",
	Short:         "Markdown/MDX preview renderer, linter and bundle planner",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := rootCmd.Execute(); err != nil {
		logger.Error("execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./markdown-input.yaml)")
	rootCmd.PersistentFlags().String("log.level", "info", "log level")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log.level"))
}

func initConfig() {
	used, err := config.Setup(viper.GetViper(), cfgFile)
	if err != nil {
		initErr = fmt.Errorf("load config: %w", err)
		return
	}
	if used != "" {
		logger.Debug("using config file", "file", used)
	}
}

// loadConfig returns the merged configuration and replaces the bootstrap
// logger with the configured one.
func loadConfig() (*config.Config, error) {
	if initErr != nil {
		return nil, initErr
	}
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}
	l, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return nil, err
	}
	logger = l
	slog.SetDefault(l)
	return cfg, nil
}

func newRenderers(cfg *config.Config) server.Renderers {
	defaults := preview.WithDefaults(cfg.Preview.Options())
	term := markdown.NewTerminal(cfg.Terminal.Style, cfg.Terminal.Width)
	return server.Renderers{
		HTML:         preview.New(markdown.NewHTML(), defaults),
		Terminal:     preview.New(term, defaults),
		TerminalHTML: preview.New(markdown.NewTerminalHTML(term), defaults),
		Default:      cfg.Preview.Backend,
	}
}

// bundleConfig loads bundle.file when set, otherwise the named preset.
func bundleConfig(cfg *config.Config) (*bundle.Config, error) {
	if cfg.Bundle.File != "" {
		return bundle.Load(cfg.Bundle.File)
	}
	return bundle.Preset(cfg.Bundle.Preset)
}
