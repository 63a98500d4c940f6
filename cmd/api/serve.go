package main

import (
	"os/signal"
	"syscall"

	"funkard-admin-service/internal/app"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := app.NewServer(cfg, logger)
		defer srv.Close()

		if err := srv.Build(ctx); err != nil {
			return err
		}
		if err := srv.Run(ctx); err != nil {
			return err
		}

		logger.Info("server stopped gracefully")
		return nil
	},
}
