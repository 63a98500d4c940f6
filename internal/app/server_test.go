package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"funkard-admin-service/internal/config"
	"funkard-admin-service/internal/domain/notification"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.AppConfig{
		HTTPAddr:           ":0",
		Env:                "test",
		Storage:            config.StorageMemory,
		RateLimitTickets:   2,
		RateLimitWindow:    time.Minute,
		CronSecret:         "cron-secret",
		CleanupDefaultDays: 30,
	}

	s := NewServer(cfg, zap.NewNop())
	require.NoError(t, s.Build(t.Context()))
	t.Cleanup(s.Close)
	return s
}

func request(s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:4000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := request(s, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = request(s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "funkard_admin_http_request_duration_seconds"))
}

func TestSupportTicketFlow(t *testing.T) {
	s := newTestServer(t)

	ticket := map[string]string{"email": "buyer@example.com", "subject": "Damaged card", "message": "corner bent"}
	w := request(s, http.MethodPost, "/api/v1/support", "", ticket)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = request(s, http.MethodGet, "/api/v1/admin/notifications?type=support_ticket", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data []notification.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "Damaged card", env.Data[0].Message)

	// the limit is two submissions per window
	assert.Equal(t, http.StatusCreated, request(s, http.MethodPost, "/api/v1/support", "", ticket).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(s, http.MethodPost, "/api/v1/support", "", ticket).Code)
}

func TestCleanupAcceptsCronSecret(t *testing.T) {
	s := newTestServer(t)

	w := request(s, http.MethodDelete, "/api/v1/admin/notifications/cleanup?days=7", "cron-secret", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"older_than_days":7`)
}
