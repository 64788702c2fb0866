package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/artshin/app-log-service/internal/app/middleware"
	"github.com/artshin/app-log-service/internal/config"
	"github.com/artshin/app-log-service/internal/domain/logentry"
	"github.com/artshin/app-log-service/internal/domain/logrequest"
	"github.com/artshin/app-log-service/internal/infrastructure/auth"
	"github.com/artshin/app-log-service/internal/infrastructure/ratelimit"
)

const infoText = `app-log-service
===============

Endpoints:
- POST   /api/v1/logs         - Submit a log entry
- GET    /api/v1/logs         - Retrieve all buffered logs (JSON)
- DELETE /api/v1/logs         - Clear all logs
- GET    /api/v1/logs/stream  - Live SSE stream (add ?replay=1 for a snapshot first)
- GET    /api/v1/logs/stats   - Aggregates over the current buffer

Authenticated device log requests live under /api/v1/logs/{request,poll,upload,uploads}.
`

// RouterDeps aggregates HTTP dependencies.
type RouterDeps struct {
	Config         *config.Config
	LogHandler     *logentry.Handler
	RequestHandler *logrequest.Handler
	AuthManager    *auth.Manager
	Logger         *zap.Logger
	Limiter        ratelimit.Limiter
}

// NewRouter builds the gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if deps.Config != nil {
		r.Use(middleware.CORS(deps.Config.Cors))
	}
	if deps.AuthManager != nil {
		r.Use(middleware.OptionalAuth(deps.AuthManager))
	}
	if deps.Config == nil || deps.Config.RateLimit.Enabled {
		r.Use(middleware.RateLimit(deps.Limiter))
	}
	r.Use(middleware.RequestLogger(deps.Logger))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, infoText)
	})

	api := r.Group("/api/v1")
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Config == nil || deps.Config.Monitoring.PrometheusEnabled {
		api.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	deps.LogHandler.RegisterRoutes(api)

	if deps.RequestHandler != nil && deps.AuthManager != nil {
		deps.RequestHandler.RegisterRoutes(api, middleware.AuthMiddleware(deps.AuthManager))
	}

	return r
}
