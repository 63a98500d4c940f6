package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_notifications (
	id          BIGSERIAL PRIMARY KEY,
	type        VARCHAR(32)  NOT NULL,
	priority    VARCHAR(16)  NOT NULL,
	title       VARCHAR(160) NOT NULL,
	message     TEXT         NOT NULL,
	read_status BOOLEAN      NOT NULL DEFAULT FALSE,
	read_at     TIMESTAMPTZ,
	archived    BOOLEAN      NOT NULL DEFAULT FALSE,
	resolved_at TIMESTAMPTZ,
	resolved_by VARCHAR(120),
	history     TEXT,
	created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	CHECK (read_status = (read_at IS NOT NULL)),
	CHECK ((resolved_at IS NULL) = (resolved_by IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_admin_notifications_created_at
	ON admin_notifications(created_at);
CREATE INDEX IF NOT EXISTS idx_admin_notifications_archived_resolved
	ON admin_notifications(archived, resolved_at);

CREATE TABLE IF NOT EXISTS support_tickets (
	id          UUID         PRIMARY KEY,
	email       VARCHAR(120) NOT NULL,
	subject     VARCHAR(100) NOT NULL,
	message     TEXT         NOT NULL,
	status      VARCHAR(20)  NOT NULL DEFAULT 'NEW',
	admin_note  TEXT,
	created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ,
	resolved_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_ticket_status ON support_tickets(status);
CREATE INDEX IF NOT EXISTS idx_ticket_created_at ON support_tickets(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// Migrate applies any outstanding migrations in order, each in its own
// transaction. It returns the schema version after the run.
func Migrate(ctx context.Context, db *DB) (int, error) {
	current, err := schemaVersion(ctx, db)
	if err != nil {
		return 0, err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		err := db.WithTx(ctx, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, m.sql)
			return err
		})
		if err != nil {
			return current, fmt.Errorf("applying migration %d: %w", m.version, err)
		}
		current = m.version
	}

	return current, nil
}

func schemaVersion(ctx context.Context, db *DB) (int, error) {
	var version int
	err := db.Pool().QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		var pgErr *pgconn.PgError
		// 42P01: undefined_table, i.e. a fresh database
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			return 0, nil
		}
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
