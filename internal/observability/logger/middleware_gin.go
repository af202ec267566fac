package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kariemSeiam/Hvar-Hub/internal/auditcontext"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// GinMiddleware stamps every request with a request id, threads audit
// metadata into the request context, and logs the completed request.
func GinMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)

		ctx := auditcontext.WithRequestID(c.Request.Context(), requestID)
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		if actor := c.GetHeader("X-Actor"); actor != "" {
			ctx = auditcontext.WithActor(ctx, actor)
		}
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields,
				zap.String("error", c.Errors.Last().Error()),
				zap.Any("headers", MaskHeaders(c.Request.Header)),
			)
			log.Warn("request failed", fields...)
			return
		}
		log.Info("request completed", fields...)
	}
}
