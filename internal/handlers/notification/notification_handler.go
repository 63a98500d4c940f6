// internal/handlers/notification/notification_handler.go
package notification

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"funkard-admin-service/internal/domain/notification"
	"funkard-admin-service/internal/middleware"
	xerrors "funkard-admin-service/internal/pkg/errors"
	"funkard-admin-service/internal/pkg/response"
	service "funkard-admin-service/internal/service/notification"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	cleanupDefaultDays  int
	logger              *zap.Logger
}

func NewNotificationHandler(notificationService *service.NotificationService, cleanupDefaultDays int, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		cleanupDefaultDays:  cleanupDefaultDays,
		logger:              logger,
	}
}

// ListNotifications lists notifications, filtered by type, priority and status
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	var filters notification.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	notifications, err := h.notificationService.List(c.Request.Context(), filters)
	if err != nil {
		response.FromError(c, "failed to list notifications", err)
		return
	}

	response.Success(c, http.StatusOK, "notifications retrieved", notifications)
}

// CreateNotification raises a new admin notification
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req notification.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	n, err := h.notificationService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create notification", err)
		return
	}

	response.Success(c, http.StatusCreated, "notification created", n)
}

// GetUnreadCount counts unread, non-archived notifications
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to get unread count", err)
		return
	}

	response.Success(c, http.StatusOK, "unread count retrieved", notification.UnreadCountResponse{
		UnreadCount: count,
	})
}

// GetRecent returns the newest active notifications
func (h *NotificationHandler) GetRecent(c *gin.Context) {
	notifications, err := h.notificationService.Recent(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to get notifications", err)
		return
	}

	response.Success(c, http.StatusOK, "notifications retrieved", gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// GetNotification retrieves a single notification by ID
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	n, err := h.notificationService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "notification not found", err)
		return
	}

	response.Success(c, http.StatusOK, "notification retrieved", n)
}

// GetHistory returns the decoded audit history of a notification
func (h *NotificationHandler) GetHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	events, err := h.notificationService.History(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to get history", err)
		return
	}

	response.Success(c, http.StatusOK, "history retrieved", events)
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	n, err := h.notificationService.MarkRead(c.Request.Context(), id, middleware.Actor(c))
	if err != nil {
		response.FromError(c, "failed to mark as read", err)
		return
	}

	response.Success(c, http.StatusOK, "notification marked as read", n)
}

// Resolve marks a notification as resolved, with an optional note
func (h *NotificationHandler) Resolve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	req, ok := bindNote(c)
	if !ok {
		return
	}

	n, err := h.notificationService.Resolve(c.Request.Context(), id, middleware.Actor(c), req.NoteValue())
	if err != nil {
		response.FromError(c, "failed to resolve notification", err)
		return
	}

	response.Success(c, http.StatusOK, "notification resolved", n)
}

// Archive archives a notification, with an optional note
func (h *NotificationHandler) Archive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	req, ok := bindNote(c)
	if !ok {
		return
	}

	n, err := h.notificationService.Archive(c.Request.Context(), id, middleware.Actor(c), req.NoteValue())
	if err != nil {
		response.FromError(c, "failed to archive notification", err)
		return
	}

	response.Success(c, http.StatusOK, "notification archived", n)
}

// Cleanup deletes archived notifications resolved more than ?days= ago
func (h *NotificationHandler) Cleanup(c *gin.Context) {
	days := h.cleanupDefaultDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.FromError(c, "invalid days parameter", xerrors.Invalid("days must be an integer, got %q", raw))
			return
		}
		days = parsed
	}

	deleted, err := h.notificationService.Cleanup(c.Request.Context(), days)
	if err != nil {
		response.FromError(c, "failed to clean up notifications", err)
		return
	}

	h.logger.Info("notification cleanup requested",
		zap.Int("older_than_days", days),
		zap.Int64("deleted", deleted),
		zap.Bool("cron", middleware.IsCron(c)),
	)

	response.Success(c, http.StatusOK, "cleanup completed", notification.CleanupResult{
		Deleted:       deleted,
		OlderThanDays: days,
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid notification ID", err)
		return 0, false
	}
	return id, true
}

// bindNote reads the optional {"note": ...} body. An empty body is allowed.
func bindNote(c *gin.Context) (*notification.NoteRequest, bool) {
	var req notification.NoteRequest
	if c.Request.ContentLength == 0 {
		return &req, true
	}
	// Chunked requests report an unknown length, so an empty body only shows up as EOF.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ValidationError(c, "invalid request body", err)
		return nil, false
	}
	return &req, true
}
