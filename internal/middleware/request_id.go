package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderXRequestID = "X-Request-ID"

	// ContextKeyRequestID is the gin context key holding the request ID.
	ContextKeyRequestID = "request_id"
)

// RequestIDMiddleware propagates a valid UUID X-Request-ID or generates one,
// and echoes it in the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if id, err := uuid.Parse(rid); err == nil {
			rid = id.String()
		} else {
			rid = uuid.New().String()
		}

		c.Set(ContextKeyRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
