// internal/domain/ticket/entity.go
package ticket

import (
	"strings"
	"time"
)

type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// ParseStatus accepts any letter case, e.g. "resolved" or "In_Progress".
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusNew, StatusInProgress, StatusResolved, StatusClosed:
		return st, true
	}
	return "", false
}

const (
	MaxEmailLen   = 120
	MaxSubjectLen = 100
)

type SupportTicket struct {
	ID         string     `json:"id" db:"id"`
	Email      string     `json:"email" db:"email"`
	Subject    string     `json:"subject" db:"subject"`
	Message    string     `json:"message" db:"message"`
	Status     Status     `json:"status" db:"status"`
	AdminNote  *string    `json:"admin_note" db:"admin_note"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at" db:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at" db:"resolved_at"`
}

// DTOs

type CreateTicketRequest struct {
	Email   string `json:"email" binding:"required,max=120"`
	Subject string `json:"subject" binding:"required,max=100"`
	Message string `json:"message" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Note   *string `json:"note"`
}

type AddNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

type TicketListFilters struct {
	Status  string `form:"status"`
	Email   string `form:"email"`
	Subject string `form:"subject"`
}

// Filter is the normalized listing query. Email and subject match as
// case-insensitive substrings.
type Filter struct {
	Status  *Status
	Email   string
	Subject string
}

func (f Filter) Matches(t *SupportTicket) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Email != "" && !containsFold(t.Email, f.Email) {
		return false
	}
	if f.Subject != "" && !containsFold(t.Subject, f.Subject) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
