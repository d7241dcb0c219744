package http

import (
	"time"

	"github.com/steveyiyo/livebridge/internal/core/session"
	"github.com/steveyiyo/livebridge/internal/http/handlers"
	"github.com/steveyiyo/livebridge/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type RouterConfig struct {
	// Scheme and Host form the public base URL handed out in responses.
	Scheme   string
	Host     string
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

func NewRouter(svc *session.Service, hub *ws.Hub, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}
	r := gin.New()
	r.Use(gin.Recovery(), accessLog(cfg.Logger))

	sh := handlers.NewSessionsHandler(svc, cfg.Scheme, cfg.Host)
	wsh := handlers.NewStreamHandler(hub, svc, cfg.Logger)
	api := r.Group("/v1")
	api.POST("/session", sh.Create)
	api.GET("/session", sh.Status)
	api.DELETE("/session", sh.Delete)
	api.GET("/sessions", sh.List)
	api.GET("/sessions/:id/summary", sh.Summary)
	api.GET("/events", wsh.WS)

	r.GET("/healthz", handlers.Healthz)
	if cfg.Gatherer != nil {
		r.GET("/metrics", handlers.Metrics(cfg.Gatherer))
	}
	return r
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
