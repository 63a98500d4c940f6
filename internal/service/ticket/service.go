// internal/service/ticket/service.go
package ticket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"funkard-admin-service/internal/domain/notification"
	"funkard-admin-service/internal/domain/ticket"
	xerrors "funkard-admin-service/internal/pkg/errors"
	"funkard-admin-service/internal/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const NewTicketTitle = "New support ticket"

// Repository is the persistence collaborator for support tickets.
type Repository interface {
	Create(ctx context.Context, t *ticket.SupportTicket) error
	// FindByID returns an error wrapping xerrors.ErrNotFound when missing.
	FindByID(ctx context.Context, id string) (*ticket.SupportTicket, error)
	// Update loads the ticket with exclusive access, applies fn and stores it.
	Update(ctx context.Context, id string, fn func(t *ticket.SupportTicket) error) (*ticket.SupportTicket, error)
	List(ctx context.Context, f ticket.Filter) ([]ticket.SupportTicket, error)
}

// Notifier creates the admin notification announcing a new ticket.
type Notifier interface {
	Create(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

type TicketService struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewTicketService(repo Repository, notifier Notifier, logger *zap.Logger) *TicketService {
	return &TicketService{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Create stores a new ticket and then announces it with exactly one admin
// notification. The two writes are independent: if the notification cannot
// be created the ticket is still returned.
func (s *TicketService) Create(ctx context.Context, req *ticket.CreateTicketRequest) (*ticket.SupportTicket, error) {
	t := &ticket.SupportTicket{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(req.Email),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   req.Message,
		Status:    ticket.StatusNew,
		CreatedAt: s.now().UTC(),
	}

	if err := validate(t); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("failed to create ticket", zap.Error(err))
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	metrics.RecordTransition("ticket", "create")
	s.logger.Info("ticket created", zap.String("ticket_id", t.ID))

	s.notifyCreated(ctx, t)

	return t, nil
}

func (s *TicketService) notifyCreated(ctx context.Context, t *ticket.SupportTicket) {
	_, err := s.notifier.Create(ctx, &notification.CreateNotificationRequest{
		Type:     notification.TypeSupportTicket,
		Priority: notification.PriorityHigh,
		Title:    NewTicketTitle,
		Message:  t.Subject,
	})
	if err != nil {
		metrics.CrossNotifyFailures.Inc()
		s.logger.Warn("ticket created without admin notification",
			zap.String("ticket_id", t.ID),
			zap.Error(err),
		)
	}
}

// Get retrieves a ticket by ID
func (s *TicketService) Get(ctx context.Context, id string) (*ticket.SupportTicket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, xerrors.NotFound("ticket", id)
	}
	return s.repo.FindByID(ctx, id)
}

// List returns tickets matching the filters, newest first.
func (s *TicketService) List(ctx context.Context, filters ticket.TicketListFilters) ([]ticket.SupportTicket, error) {
	f := ticket.Filter{
		Email:   strings.TrimSpace(filters.Email),
		Subject: strings.TrimSpace(filters.Subject),
	}
	if strings.TrimSpace(filters.Status) != "" {
		st, ok := ticket.ParseStatus(filters.Status)
		if !ok {
			return nil, xerrors.Wrap(xerrors.ErrInvalidFilter, "status "+filters.Status)
		}
		f.Status = &st
	}

	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return list, nil
}

// UpdateStatus moves a ticket to status and replaces its admin note with
// note. The first move into RESOLVED stamps resolved_at; it is never
// cleared afterwards.
func (s *TicketService) UpdateStatus(ctx context.Context, id, status string, note *string) (*ticket.SupportTicket, error) {
	st, ok := ticket.ParseStatus(status)
	if !ok {
		return nil, xerrors.Invalid("unknown ticket status %q", status)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, xerrors.NotFound("ticket", id)
	}

	t, err := s.repo.Update(ctx, id, func(t *ticket.SupportTicket) error {
		now := s.now().UTC()
		t.Status = st
		t.AdminNote = note
		t.UpdatedAt = &now
		if st == ticket.StatusResolved && t.ResolvedAt == nil {
			t.ResolvedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}

	metrics.RecordTransition("ticket", strings.ToLower(string(st)))
	s.logger.Info("ticket status updated",
		zap.String("ticket_id", id),
		zap.String("status", string(st)),
	)
	return t, nil
}

// AddNote appends note to the admin note on a new line.
func (s *TicketService) AddNote(ctx context.Context, id, note string) (*ticket.SupportTicket, error) {
	if strings.TrimSpace(note) == "" {
		return nil, xerrors.Invalid("note is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, xerrors.NotFound("ticket", id)
	}

	t, err := s.repo.Update(ctx, id, func(t *ticket.SupportTicket) error {
		now := s.now().UTC()
		updated := note
		if t.AdminNote != nil {
			updated = *t.AdminNote + "\n" + note
		}
		t.AdminNote = &updated
		t.UpdatedAt = &now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add ticket note: %w", err)
	}

	metrics.RecordTransition("ticket", "note")
	s.logger.Info("ticket note added", zap.String("ticket_id", id))
	return t, nil
}

func validate(t *ticket.SupportTicket) error {
	switch {
	case t.Email == "":
		return xerrors.Invalid("email is required")
	case len(t.Email) > ticket.MaxEmailLen:
		return xerrors.Invalid("email must be at most %d characters", ticket.MaxEmailLen)
	case t.Subject == "":
		return xerrors.Invalid("subject is required")
	case len(t.Subject) > ticket.MaxSubjectLen:
		return xerrors.Invalid("subject must be at most %d characters", ticket.MaxSubjectLen)
	case strings.TrimSpace(t.Message) == "":
		return xerrors.Invalid("message is required")
	}
	return nil
}
