package middleware

import (
	"go-leave/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger puts a logger tagged with request_id (and user_id once known) into the request context.
// It must run after RequestID.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		reqLogger := logger.With(contextutil.LogFields(ctx)...).With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)

		c.Request = c.Request.WithContext(contextutil.WithLogger(ctx, reqLogger))
		c.Next()

		reqLogger.Debug("request completed", zap.Int("status", c.Writer.Status()))
	}
}
