package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucasew/markdown-input/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented config file with every default",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")
		return writeDefaultConfig(cmd.OutOrStdout(), output, force)
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a config file without starting anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	configInitCmd.Flags().StringP("output", "o", "-", "destination file, - for stdout")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func writeDefaultConfig(stdout io.Writer, output string, force bool) error {
	content := config.RenderDefaultYAML()
	if output == "" || output == "-" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(output, flags, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	defer f.Close()
	_, err = io.WriteString(f, content)
	return err
}
