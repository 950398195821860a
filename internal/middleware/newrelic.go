package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicErrorsMiddleware reports errors attached by handlers to the New
// Relic transaction started by nrgin, and tags it with the request ID.
// It is a no-op when no transaction is present.
func NewRelicErrorsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		if rid := c.GetString(ContextKeyRequestID); rid != "" {
			txn.AddAttribute("request_id", rid)
		}
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
