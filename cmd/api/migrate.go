package main

import (
	"fmt"

	"funkard-admin-service/internal/app"
	"funkard-admin-service/internal/config"
	"funkard-admin-service/internal/repository/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage != config.StoragePostgres {
			return fmt.Errorf("migrate needs STORAGE=%s, got %q", config.StoragePostgres, cfg.Storage)
		}

		database, err := app.OpenPostgres(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer database.Pool().Close()

		version, err := postgres.Migrate(cmd.Context(), database)
		if err != nil {
			return err
		}

		logger.Info("database migrated", zap.Int("schema_version", version))
		return nil
	},
}
