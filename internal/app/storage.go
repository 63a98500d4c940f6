// internal/app/storage.go
package app

import (
	"context"
	"fmt"

	"funkard-admin-service/internal/config"
	"funkard-admin-service/internal/db"
	"funkard-admin-service/internal/repository/memory"
	"funkard-admin-service/internal/repository/postgres"
	notifyUsecase "funkard-admin-service/internal/service/notification"
	ticketUsecase "funkard-admin-service/internal/service/ticket"

	"go.uber.org/zap"
)

// Storage bundles the repositories selected by STORAGE.
type Storage struct {
	Notifications notifyUsecase.Repository
	Tickets       ticketUsecase.Repository
	close         func()
}

func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage connects the configured backend. The Postgres backend is
// migrated on open so a fresh database is usable straight away.
func OpenStorage(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*Storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return &Storage{
			Notifications: memory.NewNotificationRepository(),
			Tickets:       memory.NewTicketRepository(),
		}, nil

	case config.StoragePostgres:
		database, err := OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}

		version, err := postgres.Migrate(ctx, database)
		if err != nil {
			database.Pool().Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("connected to PostgreSQL", zap.Int("schema_version", version))

		return &Storage{
			Notifications: postgres.NewNotificationRepository(database),
			Tickets:       postgres.NewTicketRepository(database),
			close:         database.Pool().Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// OpenPostgres opens the pool without running migrations.
func OpenPostgres(ctx context.Context, cfg config.AppConfig) (*postgres.DB, error) {
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return postgres.NewDB(pool), nil
}
