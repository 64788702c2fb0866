package logrequest

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sentinel errors for deterministic HTTP mapping.
var (
	ErrNotFound         = errors.New("request not found")
	ErrAlreadyProcessed = errors.New("request already processed")
)

const (
	// RequestTTL is how long a device has to answer a request.
	RequestTTL = 24 * time.Hour
	// retention keeps settled requests visible before cleanup.
	retention = 7 * 24 * time.Hour
)

// Manager tracks log requests in memory, one active request per
// device. State does not survive restarts; a lost request is re-issued
// by the operator.
type Manager struct {
	mu       sync.Mutex
	byDevice map[string]*Request
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager wires a Manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		byDevice: make(map[string]*Request),
		logger:   logger,
		now:      time.Now,
	}
}

// Create registers a request for the device, replacing any pending one.
func (m *Manager) Create(userID uuid.UUID, deviceID string) Request {
	now := m.now().UTC()
	req := &Request{
		ID:          uuid.New(),
		UserID:      userID,
		DeviceID:    deviceID,
		RequestedAt: now,
		ExpiresAt:   now.Add(RequestTTL),
		Status:      StatusPending,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byDevice[deviceID]; ok && existing.Status == StatusPending {
		m.logger.Info("replacing pending log request",
			zap.String("device_id", deviceID),
			zap.String("old_request_id", existing.ID.String()),
			zap.String("new_request_id", req.ID.String()),
		)
	}
	m.byDevice[deviceID] = req
	return *req
}

// Pending returns the device's pending request, if any. A pending
// request past its deadline flips to expired and is not returned.
func (m *Manager) Pending(deviceID string) (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.byDevice[deviceID]
	if !ok {
		return Request{}, false
	}
	if req.Status == StatusPending && m.now().After(req.ExpiresAt) {
		req.Status = StatusExpired
		m.logger.Info("log request expired",
			zap.String("device_id", deviceID),
			zap.String("request_id", req.ID.String()),
		)
		return Request{}, false
	}
	if req.Status != StatusPending {
		return Request{}, false
	}
	return *req, true
}

// Fulfill marks the request settled and records the upload location.
func (m *Manager) Fulfill(requestID uuid.UUID, filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req := m.findLocked(requestID)
	if req == nil {
		return ErrNotFound
	}
	if req.Status != StatusPending {
		return ErrAlreadyProcessed
	}
	now := m.now().UTC()
	req.Status = StatusFulfilled
	req.FulfilledAt = &now
	req.LogFilePath = filePath
	m.logger.Info("log request fulfilled",
		zap.String("device_id", req.DeviceID),
		zap.String("request_id", requestID.String()),
		zap.String("file_path", filePath),
	)
	return nil
}

// Cancel withdraws the device's pending request.
func (m *Manager) Cancel(deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.byDevice[deviceID]
	if !ok {
		return ErrNotFound
	}
	if req.Status != StatusPending {
		return ErrAlreadyProcessed
	}
	req.Status = StatusCancelled
	m.logger.Info("log request cancelled",
		zap.String("device_id", deviceID),
		zap.String("request_id", req.ID.String()),
	)
	return nil
}

// CleanupExpired flips overdue pending requests to expired and drops
// settled requests older than the retention window. Returns the number
// removed. Meant to run on a timer.
func (m *Manager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for _, req := range m.byDevice {
		if req.Status == StatusPending && now.After(req.ExpiresAt) {
			req.Status = StatusExpired
		}
	}

	cutoff := now.Add(-retention)
	removed := 0
	for deviceID, req := range m.byDevice {
		if req.Status != StatusPending && req.RequestedAt.Before(cutoff) {
			delete(m.byDevice, deviceID)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("cleaned up old log requests", zap.Int("removed", removed))
	}
	return removed
}

// Stats counts requests by state.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var stats ManagerStats
	for _, req := range m.byDevice {
		stats.Total++
		switch req.Status {
		case StatusPending:
			if now.After(req.ExpiresAt) {
				stats.Expired++
			} else {
				stats.Pending++
			}
		case StatusFulfilled:
			stats.Fulfilled++
		case StatusExpired:
			stats.Expired++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

func (m *Manager) findLocked(requestID uuid.UUID) *Request {
	for _, req := range m.byDevice {
		if req.ID == requestID {
			return req
		}
	}
	return nil
}
