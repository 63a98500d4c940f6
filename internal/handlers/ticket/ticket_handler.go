// internal/handlers/ticket/ticket_handler.go
package ticket

import (
	"net/http"

	"funkard-admin-service/internal/domain/ticket"
	"funkard-admin-service/internal/pkg/response"
	service "funkard-admin-service/internal/service/ticket"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	ticketService *service.TicketService
}

func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
	}
}

// CreateTicket opens a support ticket from the public contact form
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	var req ticket.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	t, err := h.ticketService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create ticket", err)
		return
	}

	response.Success(c, http.StatusCreated, "ticket created", t)
}

// ListTickets lists tickets, filtered by status, email and subject
func (h *TicketHandler) ListTickets(c *gin.Context) {
	var filters ticket.TicketListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	tickets, err := h.ticketService.List(c.Request.Context(), filters)
	if err != nil {
		response.FromError(c, "failed to list tickets", err)
		return
	}

	response.Success(c, http.StatusOK, "tickets retrieved", tickets)
}

// GetTicket retrieves a single ticket by ID
func (h *TicketHandler) GetTicket(c *gin.Context) {
	t, err := h.ticketService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, "ticket not found", err)
		return
	}

	response.Success(c, http.StatusOK, "ticket retrieved", t)
}

// UpdateStatus moves a ticket to a new status, replacing the admin note
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	var req ticket.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	t, err := h.ticketService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Note)
	if err != nil {
		response.FromError(c, "failed to update ticket status", err)
		return
	}

	response.Success(c, http.StatusOK, "ticket status updated", t)
}

// AddNote appends a line to the ticket's admin note
func (h *TicketHandler) AddNote(c *gin.Context) {
	var req ticket.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	t, err := h.ticketService.AddNote(c.Request.Context(), c.Param("id"), req.Note)
	if err != nil {
		response.FromError(c, "failed to add note", err)
		return
	}

	response.Success(c, http.StatusOK, "note added", t)
}
