package main

import (
	"fmt"

	"funkard-admin-service/internal/app"
	notifyUsecase "funkard-admin-service/internal/service/notification"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete archived notifications resolved more than --days ago",
	RunE: func(cmd *cobra.Command, args []string) error {
		days := cfg.CleanupDefaultDays
		if cmd.Flags().Changed("days") {
			days = cleanupDays
		}

		storage, err := app.OpenStorage(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer storage.Close()

		svc := notifyUsecase.NewNotificationService(storage.Notifications, logger)
		deleted, err := svc.Cleanup(cmd.Context(), days)
		if err != nil {
			return err
		}

		logger.Info("cleanup finished", zap.Int("older_than_days", days), zap.Int64("deleted", deleted))
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d notifications older than %d days\n", deleted, days)
		return nil
	},
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", notifyUsecase.DefaultCleanupDays, "retention in days")
}
