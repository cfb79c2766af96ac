package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucasew/markdown-input/internal/artifacts"
	"github.com/lucasew/markdown-input/internal/bundle"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Inspect the plugin bundle configuration",
}

var bundleShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the bundle configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadBundle()
		if err != nil {
			return err
		}
		data, err := bundle.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var bundleValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the bundle configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadBundle()
		if err != nil {
			return err
		}
		warnings, err := cfg.Validate()
		for _, w := range warnings {
			logger.Warn("bundle config", "field", w.Field, "warning", w.Message)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d warnings)\n", cfg.Name, len(warnings))
		return err
	},
}

var bundlePlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Walk the module graph from the entry and print the build manifest",
	RunE:  runBundlePlan,
}

var bundlePresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(bundle.PresetNames(), "\n"))
		return err
	},
}

func init() {
	rootCmd.AddCommand(bundleCmd)
	bundleCmd.AddCommand(bundleShowCmd, bundleValidateCmd, bundlePlanCmd, bundlePresetsCmd)

	bundleCmd.PersistentFlags().String("bundle.preset", "library", "built-in preset: library or main")
	bundleCmd.PersistentFlags().String("bundle.file", "", "YAML bundle config, overrides the preset")
	bundlePlanCmd.Flags().String("bundle.root", ".", "project root")
	bundlePlanCmd.Flags().String("bundle.out_dir", "dist", "artifact directory used with --write")
	bundlePlanCmd.Flags().Bool("write", false, "store the manifest and emitted assets under bundle.out_dir")

	_ = viper.BindPFlag("bundle.preset", bundleCmd.PersistentFlags().Lookup("bundle.preset"))
	_ = viper.BindPFlag("bundle.file", bundleCmd.PersistentFlags().Lookup("bundle.file"))
	_ = viper.BindPFlag("bundle.root", bundlePlanCmd.Flags().Lookup("bundle.root"))
	_ = viper.BindPFlag("bundle.out_dir", bundlePlanCmd.Flags().Lookup("bundle.out_dir"))
}

func loadBundle() (*bundle.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bundleConfig(cfg)
}

func runBundlePlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bcfg, err := bundleConfig(cfg)
	if err != nil {
		return err
	}
	if _, err := bcfg.Validate(); err != nil {
		return err
	}

	fs := afero.NewOsFs()
	manifest, err := bcfg.Plan(cmd.Context(), fs, cfg.Bundle.Root)
	if err != nil {
		return err
	}

	if write, _ := cmd.Flags().GetBool("write"); write {
		storage := artifacts.NewLocalStorage(cfg.Bundle.OutDir)
		if err := bundle.WriteManifest(cmd.Context(), storage, fs, cfg.Bundle.Root, manifest); err != nil {
			return err
		}
		logger.Info("bundle manifest written", "dir", cfg.Bundle.OutDir, "build", manifest.Name, "assets", len(manifest.Assets))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(manifest)
}
