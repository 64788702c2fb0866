package logrequest

import (
	"time"

	"github.com/google/uuid"

	"github.com/artshin/app-log-service/internal/domain/logentry"
)

// Status tracks a request through its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Request asks one device to upload its on-device log history.
type Request struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	DeviceID    string     `json:"deviceId"`
	RequestedAt time.Time  `json:"requestedAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	Status      Status     `json:"status"`
	FulfilledAt *time.Time `json:"fulfilledAt,omitempty"`
	LogFilePath string     `json:"logFilePath,omitempty"`
}

// CreateRequest is the payload for creating a request.
type CreateRequest struct {
	DeviceID string `json:"device_id" validate:"required"`
}

// PollResponse is returned to a device that has a pending request.
type PollResponse struct {
	RequestID   string `json:"requestId"`
	RequestedAt string `json:"requestedAt"`
	ExpiresAt   string `json:"expiresAt"`
}

// UploadRequest is a device's answer to a pending request.
type UploadRequest struct {
	RequestID     string           `json:"requestId" validate:"required"`
	DeviceID      string           `json:"deviceId" validate:"required"`
	Logs          []logentry.Entry `json:"logs" validate:"required"`
	FromTimestamp string           `json:"fromTimestamp"`
	ToTimestamp   string           `json:"toTimestamp"`
	TotalCount    int              `json:"totalCount"`
}

// ManagerStats counts requests by state.
type ManagerStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Fulfilled int `json:"fulfilled"`
	Expired   int `json:"expired"`
	Cancelled int `json:"cancelled"`
}
