package middleware

import (
	"log/slog"
	"time"

	"github.com/LivingHopeDev/Inventory-system/pkg/ctxmanage"
	"github.com/LivingHopeDev/Inventory-system/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Logger tags every request with a trace id and logs the outcome.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.SetTraceIdOfRequest(c)

		start := time.Now()
		slog.Info("request started", slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method), slog.String("URL", c.Request.URL.Path))

		c.Next()

		slog.Info("request completed", slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method), slog.String("URL", c.Request.URL.Path),
			slog.Int("Status", c.Writer.Status()), slog.Duration("Duration", time.Since(start)))
	}
}
