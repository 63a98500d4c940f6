//go:build integration

package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"funkard-admin-service/internal/domain/notification"
	"funkard-admin-service/internal/domain/ticket"
	"funkard-admin-service/internal/pkg/audit"
	xerrors "funkard-admin-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/repository/postgres/
func newTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := NewDB(pool)
	_, err = Migrate(ctx, db)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `TRUNCATE admin_notifications, support_tickets RESTART IDENTITY`)
	require.NoError(t, err)
	return db
}

func insertNotification(t *testing.T, repo *NotificationRepository, createdAt time.Time) *notification.Notification {
	t.Helper()
	n := &notification.Notification{
		Type:      "error",
		Priority:  notification.PriorityHigh,
		Title:     "Payment failed",
		Message:   "order 1042",
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), n))
	require.NotZero(t, n.ID)
	return n
}

func TestNotificationRepository_NullHistoryReadsEmpty(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	n := insertNotification(t, repo, time.Now().UTC())

	got, err := repo.FindByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, audit.Trail(""), got.History)

	events, err := got.History.Events()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestNotificationRepository_UpdateSerializesWriters(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDB(t))
	n := insertNotification(t, repo, time.Now().UTC())

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, n.ID, func(n *notification.Notification) (bool, error) {
				trail, _ := audit.Append(string(n.History), "admin", audit.ActionArchive, "", time.Now())
				n.History = audit.Trail(trail)
				n.Archived = true
				return true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)

	events, err := got.History.Events()
	require.NoError(t, err)
	assert.Len(t, events, writers, "no append is lost")
}

func TestNotificationRepository_UpdateUnchangedAndMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDB(t))
	n := insertNotification(t, repo, time.Now().UTC())

	_, err := repo.Update(ctx, n.ID, func(n *notification.Notification) (bool, error) {
		n.Archived = true
		return false, nil
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived, "unchanged rows are not written")

	_, err = repo.Update(ctx, n.ID+1000, func(*notification.Notification) (bool, error) { return true, nil })
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))
}

func TestNotificationRepository_DeleteArchivedResolvedBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDB(t))
	now := time.Now().UTC().Truncate(time.Microsecond)
	old := now.Add(-40 * 24 * time.Hour)

	set := func(id int64, archived bool, resolvedAt *time.Time) {
		_, err := repo.Update(ctx, id, func(n *notification.Notification) (bool, error) {
			n.Archived = archived
			if resolvedAt != nil {
				by := "admin"
				n.ResolvedAt, n.ResolvedBy = resolvedAt, &by
			}
			return true, nil
		})
		require.NoError(t, err)
	}

	stale := insertNotification(t, repo, old)
	set(stale.ID, true, &old)
	recent := insertNotification(t, repo, old)
	set(recent.ID, true, &now)
	active := insertNotification(t, repo, old)
	set(active.ID, false, &old)
	unresolved := insertNotification(t, repo, old)
	set(unresolved.ID, true, nil)

	deleted, err := repo.DeleteArchivedResolvedBefore(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByID(ctx, stale.ID)
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))

	remaining, err := repo.Filter(ctx, notification.Filter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
}

func TestTicketRepository_RoundTripAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewTicketRepository(newTestDB(t))
	base := time.Now().UTC().Truncate(time.Microsecond)

	create := func(email, subject string, at time.Time) *ticket.SupportTicket {
		tk := &ticket.SupportTicket{
			ID:        uuid.NewString(),
			Email:     email,
			Subject:   subject,
			Message:   "help",
			Status:    ticket.StatusNew,
			CreatedAt: at,
		}
		require.NoError(t, repo.Create(ctx, tk))
		return tk
	}

	first := create("Collector@Example.com", "50% off_now", base)
	create("other@example.com", "500 off now", base.Add(time.Minute))

	resolvedAt := base.Add(2 * time.Minute)
	note := "refunded"
	got, err := repo.Update(ctx, first.ID, func(tk *ticket.SupportTicket) error {
		tk.Status = ticket.StatusResolved
		tk.AdminNote = &note
		tk.UpdatedAt = &resolvedAt
		tk.ResolvedAt = &resolvedAt
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, ticket.StatusResolved, got.Status)

	stored, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResolvedAt)
	assert.True(t, stored.ResolvedAt.Equal(resolvedAt))
	assert.Equal(t, "refunded", *stored.AdminNote)

	all, err := repo.List(ctx, ticket.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "other@example.com", all[0].Email, "newest first")

	bySubject, err := repo.List(ctx, ticket.Filter{Subject: "50% OFF_"})
	require.NoError(t, err)
	require.Len(t, bySubject, 1, "wildcards match literally")
	assert.Equal(t, first.ID, bySubject[0].ID)

	resolved := ticket.StatusResolved
	byStatus, err := repo.List(ctx, ticket.Filter{Status: &resolved, Email: "collector@"})
	require.NoError(t, err)
	assert.Len(t, byStatus, 1)

	_, err = repo.FindByID(ctx, "not-a-uuid")
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))
	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.True(t, xerrors.Is(err, xerrors.ErrNotFound))
}
