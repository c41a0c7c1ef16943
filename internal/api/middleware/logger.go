package middleware

import (
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/gin-gonic/gin"
)

// Logger logs one line per request
func Logger(logger lager.Logger) gin.HandlerFunc {
	logger = logger.Session("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		data := lager.Data{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		}

		if len(c.Errors) > 0 {
			data["errors"] = c.Errors.String()
		}

		if c.Writer.Status() >= 500 {
			logger.Info("request-failed", data)
			return
		}
		logger.Debug("request", data)
	}
}
