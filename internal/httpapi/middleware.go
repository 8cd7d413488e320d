package httpapi

import (
	"context"
	"time"

	"github.com/MarkoPoloResearchLab/fleetledger/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// observeRequests records latency and status per matched route and logs
// server errors.
func observeRequests(collectors *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		started := time.Now()
		ctx.Next()
		elapsed := time.Since(started)
		status := ctx.Writer.Status()
		collectors.ObserveRequest(ctx.Request.Method, ctx.FullPath(), status, elapsed)
		if status >= 500 {
			logger.Warn("request failed",
				zap.String("method", ctx.Request.Method),
				zap.String("path", ctx.Request.URL.Path),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
			)
		}
	}
}

// requestTimeout bounds the request context handed to the services.
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if timeout <= 0 {
			ctx.Next()
			return
		}
		requestCtx, cancel := context.WithTimeout(ctx.Request.Context(), timeout)
		defer cancel()
		ctx.Request = ctx.Request.WithContext(requestCtx)
		ctx.Next()
	}
}
