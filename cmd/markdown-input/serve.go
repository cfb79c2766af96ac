package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucasew/markdown-input/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the preview HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("server.http_addr", ":8080", "HTTP listen address")
	_ = viper.BindPFlag("server.http_addr", serveCmd.Flags().Lookup("server.http_addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bundleCfg, err := bundleConfig(cfg)
	if err != nil {
		return err
	}
	warnings, err := bundleCfg.Validate()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn("bundle config", "field", w.Field, "warning", w.Message)
	}

	auth := server.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if !auth.Enabled() {
		logger.Warn("auth.jwt_secret is empty; /v1 endpoints are unauthenticated")
	}

	srv := server.NewHttpServer(cfg.Server, newRenderers(cfg), bundleCfg, auth, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
