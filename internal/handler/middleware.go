package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iamvkosarev/ai-ide-gateway/internal/logger"
	"github.com/iamvkosarev/ai-ide-gateway/internal/metrics"
)

func RequestLogger(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)
		log.LogRequest(c.Request.Method, route, status, duration)
		m.RecordRequest(route, status, duration)
		for _, err := range c.Errors {
			log.Warn().Err(err.Err).Str("route", route).Msg("request error")
		}
	}
}

// CORS lets the browser IDE call the API from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
