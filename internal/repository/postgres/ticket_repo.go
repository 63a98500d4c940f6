// internal/repository/postgres/ticket_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"funkard-admin-service/internal/domain/ticket"
	xerrors "funkard-admin-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ticketColumns = `
	id::text, email, subject, message, status, admin_note, created_at, updated_at, resolved_at`

type TicketRepository struct {
	db *DB
}

func NewTicketRepository(db *DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create creates a new support ticket
func (r *TicketRepository) Create(ctx context.Context, t *ticket.SupportTicket) error {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return fmt.Errorf("invalid ticket id %q: %w", t.ID, err)
	}

	query := `
		INSERT INTO support_tickets (id, email, subject, message, status, admin_note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.Pool().Exec(ctx, query,
		id, t.Email, t.Subject, t.Message, string(t.Status), t.AdminNote, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	return nil
}

// FindByID retrieves a ticket by ID
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*ticket.SupportTicket, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, xerrors.NotFound("ticket", id)
	}

	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = $1`

	t, err := scanTicket(r.db.Pool().QueryRow(ctx, query, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.NotFound("ticket", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}

	return t, nil
}

// Update applies fn to the locked row and writes back the mutable fields
func (r *TicketRepository) Update(ctx context.Context, id string, fn func(t *ticket.SupportTicket) error) (*ticket.SupportTicket, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, xerrors.NotFound("ticket", id)
	}

	var result *ticket.SupportTicket
	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = $1 FOR UPDATE`

		t, err := scanTicket(tx.QueryRow(ctx, query, uid))
		if errors.Is(err, pgx.ErrNoRows) {
			return xerrors.NotFound("ticket", id)
		}
		if err != nil {
			return fmt.Errorf("failed to lock ticket: %w", err)
		}

		if err := fn(t); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE support_tickets
			SET status = $1, admin_note = $2, updated_at = $3, resolved_at = $4
			WHERE id = $5
		`, string(t.Status), t.AdminNote, t.UpdatedAt, t.ResolvedAt, uid)
		if err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}

		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// List retrieves tickets matching the filter, newest first
func (r *TicketRepository) List(ctx context.Context, f ticket.Filter) ([]ticket.SupportTicket, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if f.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*f.Status))
		argPos++
	}

	if f.Email != "" {
		conditions = append(conditions, fmt.Sprintf(`email ILIKE $%d ESCAPE '\'`, argPos))
		args = append(args, likePattern(f.Email))
		argPos++
	}

	if f.Subject != "" {
		conditions = append(conditions, fmt.Sprintf(`subject ILIKE $%d ESCAPE '\'`, argPos))
		args = append(args, likePattern(f.Subject))
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM support_tickets
		%s
		ORDER BY created_at DESC, id DESC
	`, ticketColumns, whereClause)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	tickets := []ticket.SupportTicket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tickets: %w", err)
	}

	return tickets, nil
}

func scanTicket(row pgx.Row) (*ticket.SupportTicket, error) {
	var (
		t      ticket.SupportTicket
		status string
	)

	err := row.Scan(
		&t.ID, &t.Email, &t.Subject, &t.Message, &status,
		&t.AdminNote, &t.CreatedAt, &t.UpdatedAt, &t.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Status = ticket.Status(status)
	return &t, nil
}

// likePattern builds a substring pattern with LIKE wildcards escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
