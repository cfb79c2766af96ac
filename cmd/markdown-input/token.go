package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucasew/markdown-input/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Issue a bearer token for the preview server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		subject := "editor"
		if len(args) == 1 {
			subject = args[0]
		}
		token, err := server.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Issue(subject)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
