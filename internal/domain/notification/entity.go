// internal/domain/notification/entity.go
package notification

import (
	"time"

	"funkard-admin-service/internal/pkg/audit"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Well-known type tags. Type is free-form; these are the ones the service
// itself produces or the admin UI groups by.
const (
	TypeError         = "error"
	TypeReport        = "report"
	TypeSupport       = "support"
	TypeMarket        = "market"
	TypeSupportTicket = "support_ticket"
)

const (
	MaxTypeLen  = 32
	MaxTitleLen = 160
	MaxActorLen = 120
)

// Notification is an administrative notification.
//
// Its lifecycle state is three independent bits: read, archived and
// resolved. A notification can be resolved and still active, or archived
// without ever being resolved.
type Notification struct {
	ID         int64       `json:"id" db:"id"`
	Type       string      `json:"type" db:"type"`
	Priority   Priority    `json:"priority" db:"priority"`
	Title      string      `json:"title" db:"title"`
	Message    string      `json:"message" db:"message"`
	ReadStatus bool        `json:"read_status" db:"read_status"`
	ReadAt     *time.Time  `json:"read_at" db:"read_at"`
	Archived   bool        `json:"archived" db:"archived"`
	ResolvedAt *time.Time  `json:"resolved_at" db:"resolved_at"`
	ResolvedBy *string     `json:"resolved_by" db:"resolved_by"`
	History    audit.Trail `json:"history" db:"history"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

func (n *Notification) IsActive() bool   { return !n.Archived }
func (n *Notification) IsResolved() bool { return n.ResolvedAt != nil }
func (n *Notification) IsArchived() bool { return n.Archived }

// DTOs

type CreateNotificationRequest struct {
	Type     string   `json:"type" binding:"required,max=32"`
	Priority Priority `json:"priority" binding:"required"`
	Title    string   `json:"title" binding:"required,max=160"`
	Message  string   `json:"message" binding:"required"`
}

type NoteRequest struct {
	Note *string `json:"note"`
}

// NoteValue returns the note or "" when none was sent.
func (r *NoteRequest) NoteValue() string {
	if r == nil || r.Note == nil {
		return ""
	}
	return *r.Note
}

type CleanupResult struct {
	Deleted       int64 `json:"deleted"`
	OlderThanDays int   `json:"older_than_days"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}
