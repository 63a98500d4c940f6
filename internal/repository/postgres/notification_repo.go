// internal/repository/postgres/notification_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"funkard-admin-service/internal/domain/notification"
	"funkard-admin-service/internal/pkg/audit"
	xerrors "funkard-admin-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const notificationColumns = `
	id, type, priority, title, message, read_status, read_at,
	archived, resolved_at, resolved_by, COALESCE(history, ''), created_at`

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO admin_notifications (type, priority, title, message, read_status, archived, history, created_at)
		VALUES ($1, $2, $3, $4, false, false, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.Pool().QueryRow(
		ctx, query,
		n.Type, string(n.Priority), n.Title, n.Message, nullIfEmpty(string(n.History)), n.CreatedAt,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// FindByID retrieves a notification by ID
func (r *NotificationRepository) FindByID(ctx context.Context, id int64) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM admin_notifications WHERE id = $1`

	n, err := scanNotification(r.db.Pool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.NotFound("notification", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}

	return n, nil
}

// Update locks the row with SELECT ... FOR UPDATE so concurrent transitions
// on the same notification run one after the other.
func (r *NotificationRepository) Update(ctx context.Context, id int64, fn func(n *notification.Notification) (bool, error)) (*notification.Notification, error) {
	var result *notification.Notification

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + notificationColumns + ` FROM admin_notifications WHERE id = $1 FOR UPDATE`

		n, err := scanNotification(tx.QueryRow(ctx, query, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return xerrors.NotFound("notification", id)
		}
		if err != nil {
			return fmt.Errorf("failed to lock notification: %w", err)
		}

		changed, err := fn(n)
		if err != nil {
			return err
		}
		result = n
		if !changed {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE admin_notifications
			SET read_status = $1, read_at = $2, archived = $3,
			    resolved_at = $4, resolved_by = $5, history = $6
			WHERE id = $7
		`, n.ReadStatus, n.ReadAt, n.Archived, n.ResolvedAt, n.ResolvedBy, nullIfEmpty(string(n.History)), id)
		if err != nil {
			return fmt.Errorf("failed to update notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListActive lists non-archived notifications, oldest first
func (r *NotificationRepository) ListActive(ctx context.Context) ([]notification.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM admin_notifications
		WHERE archived = false
		ORDER BY created_at ASC, id ASC
	`
	return r.query(ctx, query)
}

// Filter lists notifications matching f, oldest first
func (r *NotificationRepository) Filter(ctx context.Context, f notification.Filter) ([]notification.Notification, error) {
	where, args := buildFilterWhere(f)

	query := `SELECT ` + notificationColumns + ` FROM admin_notifications ` + where + ` ORDER BY created_at ASC, id ASC`
	return r.query(ctx, query, args...)
}

// CountUnread counts unread notifications that are not archived
func (r *NotificationRepository) CountUnread(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM admin_notifications
		WHERE read_status = false AND archived = false
	`

	var count int64
	if err := r.db.Pool().QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}

	return count, nil
}

// Recent retrieves the latest N active notifications, newest first
func (r *NotificationRepository) Recent(ctx context.Context, limit int) ([]notification.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM admin_notifications
		WHERE archived = false
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	return r.query(ctx, query, limit)
}

// DeleteArchivedResolvedBefore deletes archived notifications resolved before cutoff
func (r *NotificationRepository) DeleteArchivedResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM admin_notifications
		WHERE archived = true AND resolved_at IS NOT NULL AND resolved_at < $1
	`

	result, err := r.db.Pool().Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete archived notifications: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *NotificationRepository) query(ctx context.Context, query string, args ...interface{}) ([]notification.Notification, error) {
	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []notification.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	return notifications, nil
}

// buildFilterWhere translates a normalized filter into a WHERE clause.
// The status classifications mirror notification.Filter.Matches.
func buildFilterWhere(f notification.Filter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if f.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, *f.Type)
		argPos++
	}

	if f.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argPos))
		args = append(args, string(*f.Priority))
		argPos++
	}

	if f.Status != nil {
		switch *f.Status {
		case notification.StatusActive:
			conditions = append(conditions, "archived = false")
		case notification.StatusArchived:
			conditions = append(conditions, "archived = true")
		case notification.StatusResolved:
			conditions = append(conditions, "resolved_at IS NOT NULL")
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var (
		n        notification.Notification
		priority string
		history  string
	)

	err := row.Scan(
		&n.ID, &n.Type, &priority, &n.Title, &n.Message, &n.ReadStatus, &n.ReadAt,
		&n.Archived, &n.ResolvedAt, &n.ResolvedBy, &history, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Priority = notification.Priority(priority)
	n.History = audit.Trail(history)
	return &n, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
