package middleware

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispatch/internal/redis"
)

const (
	idempotencyHeader   = "Idempotency-Key"
	idempotencyReplayed = "Idempotent-Replayed"
)

// bodyRecorder keeps a copy of everything the handler writes.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key on POST routes, so a retried order placement does not
// place a second order. Keys are scoped to the route. A request arriving
// while the first one with the same key is still running gets 409.
// Store failures let the request through.
func IdempotencyMiddleware(store redis.IdempotencyStoreInterface, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		scope := c.FullPath()

		stored, err := store.Lookup(ctx, scope, key)
		if err != nil {
			logger.Warn("idempotency lookup failed", zap.String("route", scope), zap.Error(err))
			c.Next()
			return
		}
		if stored != nil {
			c.Header(idempotencyReplayed, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		started, err := store.Begin(ctx, scope, key)
		if err != nil {
			logger.Warn("idempotency lock failed", zap.String("route", scope), zap.Error(err))
			c.Next()
			return
		}
		if !started {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is in progress"})
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		// Server errors are not kept so the client can retry them.
		var resp *redis.StoredResponse
		if status := rec.Status(); status < http.StatusInternalServerError {
			resp = &redis.StoredResponse{
				Status:      status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
		}
		if err := store.Finish(context.WithoutCancel(ctx), scope, key, resp); err != nil {
			logger.Warn("idempotency store failed", zap.String("route", scope), zap.Error(err))
		}
	}
}
