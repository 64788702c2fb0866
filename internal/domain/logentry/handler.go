package logentry

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/artshin/app-log-service/pkg/response"
)

// keepAliveInterval paces SSE comments so idle proxies keep the
// connection open.
const keepAliveInterval = 15 * time.Second

// Handler wires HTTP routes to the Service.
type Handler struct {
	service *Service
}

// NewHandler returns a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the log relay surface.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	logs := rg.Group("/logs")
	{
		logs.POST("", h.submit)
		logs.GET("", h.snapshot)
		logs.DELETE("", h.clear)
		logs.GET("/stream", h.stream)
		logs.GET("/stats", h.stats)
	}
}

// submit accepts exactly one entry per call. Producers batching on
// their side issue one call per entry; this is a fixed contract with
// existing clients.
func (h *Handler) submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}
	entry, err := h.service.Submit(req, response.UserIDFromContext(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Snapshot())
}

func (h *Handler) clear(c *gin.Context) {
	h.service.Clear()
	c.Status(http.StatusNoContent)
}

func (h *Handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Stats())
}

// stream is the live SSE feed. With ?replay=1 the current snapshot is
// sent first; the mailbox is registered before the snapshot is taken,
// so the client sees every entry at least once and dedupes the overlap
// by sequence.
func (h *Handler) stream(c *gin.Context) {
	replay := c.Query("replay") == "1" || c.Query("replay") == "true"
	sub, snapshot := h.service.Follow(replay)
	defer h.service.Unfollow(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	for _, entry := range snapshot {
		c.SSEvent("log", entry)
	}
	c.Writer.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case entry, ok := <-sub.C():
			if !ok {
				return false
			}
			c.SSEvent("log", entry)
			return true
		case <-keepAlive.C:
			_, _ = io.WriteString(w, ": keep-alive\n\n")
			return true
		case <-clientGone:
			return false
		}
	})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		response.BadRequest(c, "empty_message", "message must not be empty")
	case errors.Is(err, ErrUnknownLevel):
		response.BadRequest(c, "unknown_level", err.Error())
	default:
		response.ValidationError(c, err)
	}
}
