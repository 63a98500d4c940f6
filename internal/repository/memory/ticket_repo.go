package memory

import (
	"context"
	"sort"
	"sync"

	"funkard-admin-service/internal/domain/ticket"
	xerrors "funkard-admin-service/internal/pkg/errors"
)

type TicketRepository struct {
	mu   sync.Mutex
	rows map[string]*ticket.SupportTicket
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{rows: make(map[string]*ticket.SupportTicket)}
}

func (r *TicketRepository) Create(ctx context.Context, t *ticket.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows[t.ID] = cloneTicket(t)
	return nil
}

func (r *TicketRepository) FindByID(ctx context.Context, id string) (*ticket.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.rows[id]
	if !ok {
		return nil, xerrors.NotFound("ticket", id)
	}
	return cloneTicket(t), nil
}

func (r *TicketRepository) Update(ctx context.Context, id string, fn func(t *ticket.SupportTicket) error) (*ticket.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rows[id]
	if !ok {
		return nil, xerrors.NotFound("ticket", id)
	}

	t := cloneTicket(stored)
	if err := fn(t); err != nil {
		return nil, err
	}
	t.ID = id
	r.rows[id] = t
	return cloneTicket(t), nil
}

// List returns matching tickets, newest first.
func (r *TicketRepository) List(ctx context.Context, f ticket.Filter) ([]ticket.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []ticket.SupportTicket{}
	for _, t := range r.rows {
		if f.Matches(t) {
			out = append(out, *cloneTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func cloneTicket(t *ticket.SupportTicket) *ticket.SupportTicket {
	c := *t
	if t.AdminNote != nil {
		c.AdminNote = ptr(*t.AdminNote)
	}
	if t.UpdatedAt != nil {
		c.UpdatedAt = ptr(*t.UpdatedAt)
	}
	if t.ResolvedAt != nil {
		c.ResolvedAt = ptr(*t.ResolvedAt)
	}
	return &c
}
