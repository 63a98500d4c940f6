package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funkard_admin_lifecycle_transitions_total",
		Help: "Lifecycle transitions applied, by entity and action.",
	}, []string{"entity", "action"})

	AuditLogRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "funkard_admin_audit_log_recovered_total",
		Help: "Audit logs that could not be decoded and were restarted.",
	})

	RetentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "funkard_admin_retention_deleted_total",
		Help: "Notifications deleted by the retention policy.",
	})

	CrossNotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "funkard_admin_ticket_notification_failures_total",
		Help: "Ticket creations whose admin notification could not be created.",
	})

	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "funkard_admin_ticket_rate_limited_total",
		Help: "Public ticket submissions rejected by the rate limiter.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "funkard_admin_http_request_duration_seconds",
		Help:    "Latency of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func RecordTransition(entity, action string) {
	LifecycleTransitions.WithLabelValues(entity, action).Inc()
}

// Middleware observes request latency labelled by the matched route
// template, so ids do not blow up label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
