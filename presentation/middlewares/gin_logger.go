package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.uber.org/zap"
)

func GinLogger(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if identity, ok := GetIdentityFromContext(c); ok {
			fields = append(fields, zap.String("caller", identity.Name))
		}

		switch {
		case len(c.Errors) > 0:
			logger.Error("Request error", append(fields, zap.String("errors", c.Errors.String()))...)
		case c.Writer.Status() >= 500:
			logger.Warn("Request failed", fields...)
		default:
			logger.Info("Request", fields...)
		}
	}
}
