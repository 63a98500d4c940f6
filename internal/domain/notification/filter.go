package notification

import (
	"strings"

	xerrors "funkard-admin-service/internal/pkg/errors"
)

// StatusFilter is a derived classification; it is never stored.
type StatusFilter string

const (
	StatusActive   StatusFilter = "active"
	StatusArchived StatusFilter = "archived"
	StatusResolved StatusFilter = "resolved"
)

// ListFilters is the raw query as received from the caller.
type ListFilters struct {
	Type     string `form:"type"`
	Priority string `form:"priority"`
	Status   string `form:"status"`
}

// Filter is a normalized query. Nil fields are absent.
type Filter struct {
	Type     *string
	Priority *Priority
	Status   *StatusFilter
}

// Normalize turns blank values into absent ones and rejects unknown
// priority or status values.
func (f ListFilters) Normalize() (Filter, error) {
	var out Filter

	if v := strings.TrimSpace(f.Type); v != "" {
		out.Type = &v
	}

	if v := strings.TrimSpace(f.Priority); v != "" {
		p := Priority(strings.ToLower(v))
		if !p.Valid() {
			return Filter{}, xerrors.Wrap(xerrors.ErrInvalidFilter, "priority "+v)
		}
		out.Priority = &p
	}

	if v := strings.TrimSpace(f.Status); v != "" {
		s := StatusFilter(strings.ToLower(v))
		switch s {
		case StatusActive, StatusArchived, StatusResolved:
		default:
			return Filter{}, xerrors.Wrap(xerrors.ErrInvalidFilter, "status "+v)
		}
		out.Status = &s
	}

	return out, nil
}

// IsEmpty reports whether no filter is set.
func (f Filter) IsEmpty() bool {
	return f.Type == nil && f.Priority == nil && f.Status == nil
}

// Matches evaluates the filter against one notification.
func (f Filter) Matches(n *Notification) bool {
	if f.Type != nil && n.Type != *f.Type {
		return false
	}
	if f.Priority != nil && n.Priority != *f.Priority {
		return false
	}
	if f.Status != nil {
		switch *f.Status {
		case StatusActive:
			return n.IsActive()
		case StatusArchived:
			return n.IsArchived()
		case StatusResolved:
			return n.IsResolved()
		}
	}
	return true
}
