package logrequest

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/artshin/app-log-service/internal/infrastructure/storage"
	"github.com/artshin/app-log-service/pkg/response"
)

// Handler wires the device log-request workflow. Every route requires
// an authenticated user.
type Handler struct {
	manager   *Manager
	uploads   *storage.Uploads
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHandler returns a Handler.
func NewHandler(manager *Manager, uploads *storage.Uploads, logger *zap.Logger) *Handler {
	return &Handler{
		manager:   manager,
		uploads:   uploads,
		validator: validator.New(),
		logger:    logger,
	}
}

// RegisterRoutes mounts the request/upload routes behind auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	logs := rg.Group("/logs", authMW)
	{
		logs.POST("/request", h.create)
		logs.DELETE("/request", h.cancel)
		logs.GET("/poll", h.poll)
		logs.POST("/upload", h.upload)
		logs.GET("/uploads", h.listUploads)
		logs.GET("/uploads/:request_id", h.getUpload)
	}
}

func (h *Handler) create(c *gin.Context) {
	userID := response.MustUserID(c)
	if c.IsAborted() {
		return
	}
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ValidationError(c, err)
		return
	}
	if err := h.validator.Struct(body); err != nil {
		response.ValidationError(c, err)
		return
	}
	req := h.manager.Create(userID, body.DeviceID)
	h.logger.Info("log request created",
		zap.String("user_id", userID.String()),
		zap.String("device_id", body.DeviceID),
		zap.String("request_id", req.ID.String()),
	)
	c.JSON(http.StatusCreated, req)
}

func (h *Handler) cancel(c *gin.Context) {
	userID := response.MustUserID(c)
	if c.IsAborted() {
		return
	}
	deviceID := c.Query("deviceId")
	if deviceID == "" {
		response.BadRequest(c, "missing_device", "deviceId query parameter is required")
		return
	}
	pending, ok := h.manager.Pending(deviceID)
	if !ok {
		response.NotFound(c, "pending request")
		return
	}
	if pending.UserID != userID {
		response.Forbidden(c, "this log request belongs to a different user")
		return
	}
	if err := h.manager.Cancel(deviceID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) poll(c *gin.Context) {
	userID := response.MustUserID(c)
	if c.IsAborted() {
		return
	}
	deviceID := c.Query("deviceId")
	if deviceID == "" {
		response.BadRequest(c, "missing_device", "deviceId query parameter is required")
		return
	}
	req, ok := h.manager.Pending(deviceID)
	if !ok {
		c.JSON(http.StatusOK, nil)
		return
	}
	if req.UserID != userID {
		response.Forbidden(c, "this log request belongs to a different user")
		return
	}
	c.JSON(http.StatusOK, PollResponse{
		RequestID:   req.ID.String(),
		RequestedAt: req.RequestedAt.Format(time.RFC3339),
		ExpiresAt:   req.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) upload(c *gin.Context) {
	userID := response.MustUserID(c)
	if c.IsAborted() {
		return
	}
	var body UploadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ValidationError(c, err)
		return
	}
	if err := h.validator.Struct(body); err != nil {
		response.ValidationError(c, err)
		return
	}
	requestID, err := uuid.Parse(body.RequestID)
	if err != nil {
		response.BadRequest(c, "invalid_request_id", "invalid request ID format")
		return
	}

	pending, ok := h.manager.Pending(body.DeviceID)
	if !ok {
		response.NotFound(c, "pending request")
		return
	}
	if pending.ID != requestID {
		response.BadRequest(c, "request_mismatch", "request ID does not match pending request")
		return
	}
	if pending.UserID != userID {
		response.Forbidden(c, "this log request belongs to a different user")
		return
	}

	if _, err := h.uploads.Save(userID, body.DeviceID, requestID, body.Logs); err != nil {
		response.InternalServerError(c, err)
		return
	}
	filePath := filepath.Join(userID.String(), body.DeviceID, requestID.String()+".jsonl")
	if err := h.manager.Fulfill(requestID, filePath); err != nil {
		h.handleError(c, err)
		return
	}

	h.logger.Info("logs uploaded",
		zap.String("user_id", userID.String()),
		zap.String("device_id", body.DeviceID),
		zap.String("request_id", requestID.String()),
		zap.Int("log_count", body.TotalCount),
	)
	c.Status(http.StatusCreated)
}

func (h *Handler) listUploads(c *gin.Context) {
	userID := response.MustUserID(c)
	if c.IsAborted() {
		return
	}
	uploads, err := h.uploads.List(userID)
	if err != nil {
		response.InternalServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, uploads)
}

func (h *Handler) getUpload(c *gin.Context) {
	userID := response.MustUserID(c)
	if c.IsAborted() {
		return
	}
	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		response.BadRequest(c, "invalid_request_id", "invalid request ID format")
		return
	}

	uploads, err := h.uploads.List(userID)
	if err != nil {
		response.InternalServerError(c, err)
		return
	}
	deviceID := ""
	for _, u := range uploads {
		if u.RequestID == requestID.String() {
			deviceID = u.DeviceID
			break
		}
	}
	if deviceID == "" {
		response.NotFound(c, "upload")
		return
	}

	entries, err := h.uploads.Read(userID, deviceID, requestID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.NotFound(c, "upload")
			return
		}
		response.InternalServerError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "request")
	case errors.Is(err, ErrAlreadyProcessed):
		response.Conflict(c, "already_processed", "request already processed")
	default:
		response.InternalServerError(c, err)
	}
}
