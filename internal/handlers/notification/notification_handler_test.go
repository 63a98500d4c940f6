package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"funkard-admin-service/internal/domain/notification"
	"funkard-admin-service/internal/middleware"
	"funkard-admin-service/internal/pkg/audit"
	"funkard-admin-service/internal/repository/memory"
	service "funkard-admin-service/internal/service/notification"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.NewNotificationService(memory.NewNotificationRepository(), zap.NewNop())
	h := NewNotificationHandler(svc, 30, zap.NewNop())
	auth := middleware.NewAuthMiddleware(nil, false, "")

	r := gin.New()
	g := r.Group("/api/v1/admin/notifications", auth.AdminOnly()...)
	g.GET("", h.ListNotifications)
	g.POST("", h.CreateNotification)
	g.GET("/unread-count", h.GetUnreadCount)
	g.GET("/recent", h.GetRecent)
	g.GET("/:id", h.GetNotification)
	g.GET("/:id/history", h.GetHistory)
	g.POST("/:id/read", h.MarkAsRead)
	g.POST("/:id/resolve", h.Resolve)
	g.POST("/:id/archive", h.Archive)
	g.DELETE("/cleanup", h.Cleanup)
	return r
}

func call(t *testing.T, r http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func createNotification(t *testing.T, r http.Handler, typ string, p notification.Priority) notification.Notification {
	t.Helper()
	code, env := call(t, r, http.MethodPost, "/api/v1/admin/notifications", notification.CreateNotificationRequest{
		Type: typ, Priority: p, Title: "Payment failed", Message: "order 1042",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	var n notification.Notification
	require.NoError(t, json.Unmarshal(env.Data, &n))
	return n
}

func TestCreateAndGet(t *testing.T) {
	r := newRouter(t)
	n := createNotification(t, r, "error", notification.PriorityHigh)

	assert.False(t, n.ReadStatus)
	assert.False(t, n.Archived)

	code, env := call(t, r, http.MethodGet, fmt.Sprintf("/api/v1/admin/notifications/%d", n.ID), nil)
	require.Equal(t, http.StatusOK, code)
	var got notification.Notification
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, n.ID, got.ID)
	assert.JSONEq(t, `[]`, mustJSON(t, got.History))
}

func TestCreateValidation(t *testing.T) {
	r := newRouter(t)

	code, _ := call(t, r, http.MethodPost, "/api/v1/admin/notifications", map[string]string{"type": "error"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, r, http.MethodPost, "/api/v1/admin/notifications", notification.CreateNotificationRequest{
		Type: "error", Priority: "urgent", Title: "t", Message: "m",
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLifecycleOverHTTP(t *testing.T) {
	r := newRouter(t)
	n := createNotification(t, r, "support", notification.PriorityMedium)
	base := fmt.Sprintf("/api/v1/admin/notifications/%d", n.ID)

	code, _ := call(t, r, http.MethodPost, base+"/read", nil)
	require.Equal(t, http.StatusOK, code)

	code, env := call(t, r, http.MethodPost, base+"/resolve", map[string]string{"note": "refunded"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = call(t, r, http.MethodPost, base+"/archive", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	var archived notification.Notification
	require.NoError(t, json.Unmarshal(env.Data, &archived))
	assert.True(t, archived.Archived)
	require.NotNil(t, archived.ResolvedBy)
	assert.Equal(t, service.DefaultActor, *archived.ResolvedBy)

	code, env = call(t, r, http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, code)
	var events []audit.Event
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.Len(t, events, 3)
	assert.Equal(t, audit.ActionRead, events[0].Action)
	assert.Equal(t, audit.ActionResolve, events[1].Action)
	assert.Equal(t, "refunded", events[1].Note)
	assert.Equal(t, audit.ActionArchive, events[2].Action)
	assert.Equal(t, service.DefaultActor, events[2].User)
}

func TestListFiltersAndCounts(t *testing.T) {
	r := newRouter(t)
	a := createNotification(t, r, "error", notification.PriorityHigh)
	createNotification(t, r, "market", notification.PriorityLow)

	code, _ := call(t, r, http.MethodPost, fmt.Sprintf("/api/v1/admin/notifications/%d/archive", a.ID), nil)
	require.Equal(t, http.StatusOK, code)

	code, env := call(t, r, http.MethodGet, "/api/v1/admin/notifications", nil)
	require.Equal(t, http.StatusOK, code)
	var list []notification.Notification
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "market", list[0].Type)

	code, env = call(t, r, http.MethodGet, "/api/v1/admin/notifications?status=archived", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	code, _ = call(t, r, http.MethodGet, "/api/v1/admin/notifications?status=attiva", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = call(t, r, http.MethodGet, "/api/v1/admin/notifications/unread-count", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"unread_count":1}`, string(env.Data))

	code, env = call(t, r, http.MethodGet, "/api/v1/admin/notifications/recent", nil)
	require.Equal(t, http.StatusOK, code)
	var recent struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &recent))
	assert.Equal(t, 1, recent.Count)
}

func TestNotFoundAndBadID(t *testing.T) {
	r := newRouter(t)

	code, _ := call(t, r, http.MethodGet, "/api/v1/admin/notifications/999", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, r, http.MethodPost, "/api/v1/admin/notifications/999/resolve", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, r, http.MethodGet, "/api/v1/admin/notifications/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestResolveWithoutBody(t *testing.T) {
	r := newRouter(t)
	n := createNotification(t, r, "error", notification.PriorityHigh)

	send := func(action string, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/admin/notifications/%d/%s", n.ID, action), bytes.NewReader([]byte(body)))
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send("resolve", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = send("archive", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = send("resolve", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCleanup(t *testing.T) {
	r := newRouter(t)

	code, env := call(t, r, http.MethodDelete, "/api/v1/admin/notifications/cleanup", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"deleted":0,"older_than_days":30}`, string(env.Data))

	code, _ = call(t, r, http.MethodDelete, "/api/v1/admin/notifications/cleanup?days=-1", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, r, http.MethodDelete, "/api/v1/admin/notifications/cleanup?days=soon", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
