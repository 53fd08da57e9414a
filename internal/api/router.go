package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates the gin engine and registers the API handlers.
// metrics may be nil, in which case /metrics is not served.
func NewRouter(m Monitor, metrics http.Handler, logger zerolog.Logger) http.Handler {
	g := gin.New()
	g.Use(gin.Recovery(), requestLogger(logger))

	h := NewHandlers(m, logger)
	group := g.Group("/api")
	group.GET("/urls", h.ListTargets)
	group.POST("/urls", h.CreateTarget)
	group.DELETE("/urls/:index", h.DeleteTarget)
	group.POST("/monitoring", h.ToggleMonitoring)
	group.GET("/status", h.Status)
	group.GET("/logs", h.Logs)
	group.POST("/test-telegram", h.TestTelegram)

	g.GET("/healthz", h.Healthz)
	if metrics != nil {
		g.GET("/metrics", gin.WrapH(metrics))
	}
	return g
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
