// internal/service/notification/service.go
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"funkard-admin-service/internal/domain/notification"
	"funkard-admin-service/internal/pkg/audit"
	xerrors "funkard-admin-service/internal/pkg/errors"
	"funkard-admin-service/internal/pkg/metrics"

	"go.uber.org/zap"
)

const (
	// DefaultActor is recorded when the caller has no authenticated principal.
	DefaultActor = "admin"

	// RecentLimit is the size of the recent-notifications feed.
	RecentLimit = 5

	DefaultCleanupDays = 30
)

// Repository is the persistence collaborator for notifications.
type Repository interface {
	Create(ctx context.Context, n *notification.Notification) error
	// FindByID returns an error wrapping xerrors.ErrNotFound when missing.
	FindByID(ctx context.Context, id int64) (*notification.Notification, error)
	// Update loads the record with exclusive access, applies fn and stores the
	// result when fn reports a change. It returns the record as it stands
	// after the call.
	Update(ctx context.Context, id int64, fn func(n *notification.Notification) (bool, error)) (*notification.Notification, error)
	// ListActive returns non-archived notifications, oldest first.
	ListActive(ctx context.Context) ([]notification.Notification, error)
	// Filter returns matching notifications, oldest first.
	Filter(ctx context.Context, f notification.Filter) ([]notification.Notification, error)
	CountUnread(ctx context.Context) (int64, error)
	// Recent returns the newest non-archived notifications, newest first.
	Recent(ctx context.Context, limit int) ([]notification.Notification, error)
	DeleteArchivedResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationService handles the notification lifecycle
type NotificationService struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewNotificationService(repo Repository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Create validates and stores a new notification in its initial state.
func (s *NotificationService) Create(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	n := &notification.Notification{
		Type:      strings.TrimSpace(req.Type),
		Priority:  notification.Priority(strings.ToLower(strings.TrimSpace(string(req.Priority)))),
		Title:     strings.TrimSpace(req.Title),
		Message:   req.Message,
		CreatedAt: s.now().UTC(),
	}

	if err := validate(n); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to create notification", zap.Error(err))
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Info("notification created",
		zap.Int64("notification_id", n.ID),
		zap.String("type", n.Type),
		zap.String("priority", string(n.Priority)),
	)

	return n, nil
}

// Get retrieves a notification by ID
func (s *NotificationService) Get(ctx context.Context, id int64) (*notification.Notification, error) {
	return s.repo.FindByID(ctx, id)
}

// History returns the decoded audit trail of a notification.
func (s *NotificationService) History(ctx context.Context, id int64) ([]audit.Event, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	events, err := n.History.Events()
	if err != nil {
		s.logger.Warn("unreadable audit log", zap.Int64("notification_id", id), zap.Error(err))
		return []audit.Event{}, nil
	}
	return events, nil
}

// MarkRead marks a notification as read. A notification that is already read
// is returned unchanged and nothing is appended to its history.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, actor string) (*notification.Notification, error) {
	actor = normalizeActor(actor)
	changed := false

	n, err := s.repo.Update(ctx, id, func(n *notification.Notification) (bool, error) {
		if n.ReadStatus {
			return false, nil
		}
		now := s.now().UTC()
		n.ReadStatus = true
		n.ReadAt = &now
		s.pushHistory(n, actor, audit.ActionRead, "", now)
		changed = true
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification as read: %w", err)
	}

	if changed {
		metrics.RecordTransition("notification", string(audit.ActionRead))
		s.logger.Info("notification read", zap.Int64("notification_id", id), zap.String("actor", actor))
	}
	return n, nil
}

// Resolve marks a notification resolved by actor. Resolving again overwrites
// the previous resolution and appends another history entry.
func (s *NotificationService) Resolve(ctx context.Context, id int64, actor, note string) (*notification.Notification, error) {
	actor = normalizeActor(actor)

	n, err := s.repo.Update(ctx, id, func(n *notification.Notification) (bool, error) {
		now := s.now().UTC()
		by := actor
		n.ResolvedAt = &now
		n.ResolvedBy = &by
		s.pushHistory(n, actor, audit.ActionResolve, note, now)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve notification: %w", err)
	}

	metrics.RecordTransition("notification", string(audit.ActionResolve))
	s.logger.Info("notification resolved", zap.Int64("notification_id", id), zap.String("actor", actor))
	return n, nil
}

// Archive archives a notification. Every call appends a history entry, even
// when the notification is already archived.
func (s *NotificationService) Archive(ctx context.Context, id int64, actor, note string) (*notification.Notification, error) {
	actor = normalizeActor(actor)

	n, err := s.repo.Update(ctx, id, func(n *notification.Notification) (bool, error) {
		n.Archived = true
		s.pushHistory(n, actor, audit.ActionArchive, note, s.now().UTC())
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive notification: %w", err)
	}

	metrics.RecordTransition("notification", string(audit.ActionArchive))
	s.logger.Info("notification archived", zap.Int64("notification_id", id), zap.String("actor", actor))
	return n, nil
}

// List returns notifications matching the filters, oldest first. Without
// any filter only active notifications are listed.
func (s *NotificationService) List(ctx context.Context, filters notification.ListFilters) ([]notification.Notification, error) {
	f, err := filters.Normalize()
	if err != nil {
		return nil, err
	}

	var list []notification.Notification
	if f.IsEmpty() {
		list, err = s.repo.ListActive(ctx)
	} else {
		list, err = s.repo.Filter(ctx, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// UnreadCount counts unread notifications that are not archived.
func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// Recent returns the newest active notifications, newest first.
func (s *NotificationService) Recent(ctx context.Context) ([]notification.Notification, error) {
	list, err := s.repo.Recent(ctx, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent notifications: %w", err)
	}
	return list, nil
}

// Cleanup deletes archived notifications resolved more than olderThanDays
// days ago. Archived notifications that were never resolved are kept.
func (s *NotificationService) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 0 {
		return 0, xerrors.Invalid("days must not be negative, got %d", olderThanDays)
	}

	cutoff := s.now().UTC().Add(-time.Duration(olderThanDays) * 24 * time.Hour)
	deleted, err := s.repo.DeleteArchivedResolvedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("notification cleanup failed", zap.Int("older_than_days", olderThanDays), zap.Error(err))
		return deleted, fmt.Errorf("failed to clean up notifications: %w", err)
	}

	metrics.RetentionDeleted.Add(float64(deleted))
	s.logger.Info("notification cleanup completed",
		zap.Int64("deleted", deleted),
		zap.Int("older_than_days", olderThanDays),
		zap.Time("cutoff", cutoff),
	)
	return deleted, nil
}

func (s *NotificationService) pushHistory(n *notification.Notification, actor string, action audit.Action, note string, at time.Time) {
	trail, recovered := audit.Append(string(n.History), actor, action, note, at)
	if recovered {
		metrics.AuditLogRecovered.Inc()
		s.logger.Warn("audit log unreadable, starting a new one",
			zap.Int64("notification_id", n.ID),
			zap.String("action", string(action)),
		)
	}
	n.History = audit.Trail(trail)
}

func normalizeActor(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return DefaultActor
	}
	if utf8.RuneCountInString(actor) > notification.MaxActorLen {
		actor = string([]rune(actor)[:notification.MaxActorLen])
	}
	return actor
}

func validate(n *notification.Notification) error {
	switch {
	case n.Type == "":
		return xerrors.Invalid("type is required")
	case len(n.Type) > notification.MaxTypeLen:
		return xerrors.Invalid("type must be at most %d characters", notification.MaxTypeLen)
	case !n.Priority.Valid():
		return xerrors.Invalid("unknown priority %q", n.Priority)
	case n.Title == "":
		return xerrors.Invalid("title is required")
	case len(n.Title) > notification.MaxTitleLen:
		return xerrors.Invalid("title must be at most %d characters", notification.MaxTitleLen)
	case strings.TrimSpace(n.Message) == "":
		return xerrors.Invalid("message is required")
	}
	return nil
}
