// internal/app/router.go
package app

import (
	notifyHandler "funkard-admin-service/internal/handlers/notification"
	ticketHandler "funkard-admin-service/internal/handlers/ticket"
	"funkard-admin-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	NotifHandler    *notifyHandler.NotificationHandler
	TicketHandler   *ticketHandler.TicketHandler
	AuthMiddleware  *middleware.AuthMiddleware
	TicketRateLimit gin.HandlerFunc
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": Version})
	})

	// ==================== Metrics ====================
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== Public Support Form ====================
	api.POST("/support", h.TicketRateLimit, h.TicketHandler.CreateTicket)

	admin := api.Group("/admin")

	// ==================== Admin Notifications ====================
	notifications := admin.Group("/notifications")
	{
		// Retention also accepts the scheduler secret
		notifications.DELETE("/cleanup", append(h.AuthMiddleware.AdminOrCron(), h.NotifHandler.Cleanup)...)

		adminOnly := notifications.Group("", h.AuthMiddleware.AdminOnly()...)
		adminOnly.GET("", h.NotifHandler.ListNotifications)
		adminOnly.POST("", h.NotifHandler.CreateNotification)
		adminOnly.GET("/unread-count", h.NotifHandler.GetUnreadCount)
		adminOnly.GET("/recent", h.NotifHandler.GetRecent)
		adminOnly.GET("/:id", h.NotifHandler.GetNotification)
		adminOnly.GET("/:id/history", h.NotifHandler.GetHistory)
		adminOnly.POST("/:id/read", h.NotifHandler.MarkAsRead)
		adminOnly.POST("/:id/resolve", h.NotifHandler.Resolve)
		adminOnly.POST("/:id/archive", h.NotifHandler.Archive)
	}

	// ==================== Admin Support Tickets ====================
	support := admin.Group("/support", h.AuthMiddleware.AdminOnly()...)
	{
		support.GET("", h.TicketHandler.ListTickets)
		support.GET("/:id", h.TicketHandler.GetTicket)
		support.POST("/:id/status", h.TicketHandler.UpdateStatus)
		support.POST("/:id/note", h.TicketHandler.AddNote)
	}
}
