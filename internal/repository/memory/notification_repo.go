// Package memory holds process-local repositories. They back the service when
// STORAGE=memory and act as the persistence fake in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"funkard-admin-service/internal/domain/notification"
	xerrors "funkard-admin-service/internal/pkg/errors"
)

type NotificationRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*notification.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{rows: make(map[int64]*notification.Notification)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	n.ID = r.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	r.rows[n.ID] = cloneNotification(n)
	return nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id int64) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.rows[id]
	if !ok {
		return nil, xerrors.NotFound("notification", id)
	}
	return cloneNotification(n), nil
}

// Update holds the store lock for the whole read-modify-write.
func (r *NotificationRepository) Update(ctx context.Context, id int64, fn func(n *notification.Notification) (bool, error)) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rows[id]
	if !ok {
		return nil, xerrors.NotFound("notification", id)
	}

	n := cloneNotification(stored)
	changed, err := fn(n)
	if err != nil {
		return nil, err
	}
	if !changed {
		return cloneNotification(stored), nil
	}

	n.ID = id
	r.rows[id] = n
	return cloneNotification(n), nil
}

func (r *NotificationRepository) ListActive(ctx context.Context) ([]notification.Notification, error) {
	return r.Filter(ctx, notification.Filter{Status: ptr(notification.StatusActive)})
}

func (r *NotificationRepository) Filter(ctx context.Context, f notification.Filter) ([]notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []notification.Notification{}
	for _, n := range r.rows {
		if f.Matches(n) {
			out = append(out, *cloneNotification(n))
		}
	}
	sortByCreated(out, false)
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, n := range r.rows {
		if !n.ReadStatus && !n.Archived {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) Recent(ctx context.Context, limit int) ([]notification.Notification, error) {
	list, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	sortByCreated(list, true)
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *NotificationRepository) DeleteArchivedResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, n := range r.rows {
		if n.Archived && n.ResolvedAt != nil && n.ResolvedAt.Before(cutoff) {
			delete(r.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

// sortByCreated orders by creation time with the id as tiebreak.
func sortByCreated(list []notification.Notification, desc bool) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if desc {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func cloneNotification(n *notification.Notification) *notification.Notification {
	c := *n
	if n.ReadAt != nil {
		c.ReadAt = ptr(*n.ReadAt)
	}
	if n.ResolvedAt != nil {
		c.ResolvedAt = ptr(*n.ResolvedAt)
	}
	if n.ResolvedBy != nil {
		c.ResolvedBy = ptr(*n.ResolvedBy)
	}
	return &c
}

func ptr[T any](v T) *T { return &v }
