package logrequest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artshin/app-log-service/internal/domain/logentry"
	"github.com/artshin/app-log-service/internal/infrastructure/storage"
)

func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func newRequestRouter(t *testing.T, manager *Manager, userID uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uploads, err := storage.NewUploads(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	r := gin.New()
	NewHandler(manager, uploads, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"), authAs(userID))
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRequestEndpoint(t *testing.T) {
	userID := uuid.New()
	manager := NewManager(zap.NewNop())
	r := newRequestRouter(t, manager, userID)

	w := doJSON(r, http.MethodPost, "/api/v1/logs/request", CreateRequest{DeviceID: "device-1"})

	require.Equal(t, http.StatusCreated, w.Code)
	var created Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, StatusPending, created.Status)
	require.Equal(t, userID, created.UserID)

	_, ok := manager.Pending("device-1")
	require.True(t, ok)
}

func TestCreateRequestRequiresDeviceID(t *testing.T) {
	r := newRequestRouter(t, NewManager(zap.NewNop()), uuid.New())

	w := doJSON(r, http.MethodPost, "/api/v1/logs/request", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutesRejectMissingUserContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	uploads, err := storage.NewUploads(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	r := gin.New()
	passthrough := func(c *gin.Context) { c.Next() }
	NewHandler(NewManager(zap.NewNop()), uploads, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"), passthrough)

	w := doJSON(r, http.MethodPost, "/api/v1/logs/request", CreateRequest{DeviceID: "device-1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPollEndpoint(t *testing.T) {
	userID := uuid.New()
	manager := NewManager(zap.NewNop())
	r := newRequestRouter(t, manager, userID)
	created := manager.Create(userID, "device-1")

	w := doJSON(r, http.MethodGet, "/api/v1/logs/poll?deviceId=device-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var poll PollResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &poll))
	require.Equal(t, created.ID.String(), poll.RequestID)

	// No pending request yields a null body, not an error.
	w = doJSON(r, http.MethodGet, "/api/v1/logs/poll?deviceId=device-other", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "null", w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/v1/logs/poll", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPollHidesOtherUsersRequests(t *testing.T) {
	manager := NewManager(zap.NewNop())
	r := newRequestRouter(t, manager, uuid.New())
	manager.Create(uuid.New(), "device-1")

	w := doJSON(r, http.MethodGet, "/api/v1/logs/poll?deviceId=device-1", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	userID := uuid.New()
	manager := NewManager(zap.NewNop())
	r := newRequestRouter(t, manager, userID)
	manager.Create(userID, "device-1")

	w := doJSON(r, http.MethodDelete, "/api/v1/logs/request?deviceId=device-1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	_, ok := manager.Pending("device-1")
	require.False(t, ok)

	w = doJSON(r, http.MethodDelete, "/api/v1/logs/request?deviceId=device-1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadEndpointFulfillsRequest(t *testing.T) {
	userID := uuid.New()
	manager := NewManager(zap.NewNop())
	r := newRequestRouter(t, manager, userID)
	created := manager.Create(userID, "device-1")

	logs := []logentry.Entry{
		{ID: uuid.NewString(), Timestamp: time.Now().UTC(), Level: "info", Message: "from device", DeviceID: "device-1"},
	}
	w := doJSON(r, http.MethodPost, "/api/v1/logs/upload", UploadRequest{
		RequestID:  created.ID.String(),
		DeviceID:   "device-1",
		Logs:       logs,
		TotalCount: len(logs),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	_, ok := manager.Pending("device-1")
	require.False(t, ok)

	// The upload is now listable and readable.
	w = doJSON(r, http.MethodGet, "/api/v1/logs/uploads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []storage.UploadMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, created.ID.String(), listed[0].RequestID)
	require.Equal(t, 1, listed[0].LogCount)

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/v1/logs/uploads/%s", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []logentry.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "from device", entries[0].Message)
}

func TestUploadRejectsMismatchedRequest(t *testing.T) {
	userID := uuid.New()
	manager := NewManager(zap.NewNop())
	r := newRequestRouter(t, manager, userID)
	manager.Create(userID, "device-1")

	w := doJSON(r, http.MethodPost, "/api/v1/logs/upload", UploadRequest{
		RequestID: uuid.NewString(),
		DeviceID:  "device-1",
		Logs:      []logentry.Entry{{Level: "info", Message: "x"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, ok := manager.Pending("device-1")
	require.True(t, ok)
}

func TestUploadWithoutPendingRequest(t *testing.T) {
	r := newRequestRouter(t, NewManager(zap.NewNop()), uuid.New())

	w := doJSON(r, http.MethodPost, "/api/v1/logs/upload", UploadRequest{
		RequestID: uuid.NewString(),
		DeviceID:  "device-1",
		Logs:      []logentry.Entry{{Level: "info", Message: "x"}},
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUnknownUpload(t *testing.T) {
	r := newRequestRouter(t, NewManager(zap.NewNop()), uuid.New())

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/api/v1/logs/uploads/%s", uuid.New()), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/v1/logs/uploads/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
