package logrequest

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateAndPending(t *testing.T) {
	manager := NewManager(zap.NewNop())
	userID := uuid.New()

	req := manager.Create(userID, "device-1")
	require.Equal(t, StatusPending, req.Status)
	require.Equal(t, userID, req.UserID)
	require.True(t, req.ExpiresAt.After(req.RequestedAt))

	pending, ok := manager.Pending("device-1")
	require.True(t, ok)
	require.Equal(t, req.ID, pending.ID)
}

func TestCreateReplacesPendingRequest(t *testing.T) {
	manager := NewManager(zap.NewNop())
	userID := uuid.New()

	first := manager.Create(userID, "device-1")
	second := manager.Create(userID, "device-1")
	require.NotEqual(t, first.ID, second.ID)

	pending, ok := manager.Pending("device-1")
	require.True(t, ok)
	require.Equal(t, second.ID, pending.ID)
}

func TestFulfill(t *testing.T) {
	manager := NewManager(zap.NewNop())
	req := manager.Create(uuid.New(), "device-1")

	require.NoError(t, manager.Fulfill(req.ID, "user/device-1/upload.jsonl"))

	_, ok := manager.Pending("device-1")
	require.False(t, ok)

	require.True(t, errors.Is(manager.Fulfill(req.ID, "again"), ErrAlreadyProcessed))
}

func TestFulfillUnknownRequest(t *testing.T) {
	manager := NewManager(zap.NewNop())
	require.True(t, errors.Is(manager.Fulfill(uuid.New(), "nope"), ErrNotFound))
}

func TestCancel(t *testing.T) {
	manager := NewManager(zap.NewNop())
	manager.Create(uuid.New(), "device-1")

	require.NoError(t, manager.Cancel("device-1"))
	_, ok := manager.Pending("device-1")
	require.False(t, ok)

	require.True(t, errors.Is(manager.Cancel("device-1"), ErrAlreadyProcessed))
	require.True(t, errors.Is(manager.Cancel("device-2"), ErrNotFound))
}

func TestPendingExpires(t *testing.T) {
	manager := NewManager(zap.NewNop())
	manager.Create(uuid.New(), "device-1")

	// Jump past the deadline.
	manager.now = func() time.Time { return time.Now().Add(RequestTTL + time.Minute) }

	_, ok := manager.Pending("device-1")
	require.False(t, ok)

	stats := manager.Stats()
	require.Equal(t, 1, stats.Expired)
	require.Zero(t, stats.Pending)
}

func TestCleanupExpired(t *testing.T) {
	manager := NewManager(zap.NewNop())
	req := manager.Create(uuid.New(), "device-1")
	require.NoError(t, manager.Fulfill(req.ID, "path"))

	// Everything is fresh, nothing to remove.
	require.Zero(t, manager.CleanupExpired())

	// Eight days later the settled request is past retention. A request
	// issued now is untouched.
	manager.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	manager.Create(uuid.New(), "device-2")
	require.Equal(t, 1, manager.CleanupExpired())

	stats := manager.Stats()
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 1, stats.Pending)
}

func TestStatsCountsByState(t *testing.T) {
	manager := NewManager(zap.NewNop())
	fulfilled := manager.Create(uuid.New(), "device-1")
	require.NoError(t, manager.Fulfill(fulfilled.ID, "path"))
	manager.Create(uuid.New(), "device-2")
	manager.Create(uuid.New(), "device-3")
	require.NoError(t, manager.Cancel("device-3"))

	stats := manager.Stats()
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 1, stats.Pending)
	require.Equal(t, 1, stats.Fulfilled)
	require.Equal(t, 1, stats.Cancelled)
}
