package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes tags the request's New Relic transaction, started by
// nrgin.Middleware, with the caller's identity and the resource being acted
// on. It must run after JWTAuth; without a transaction it does nothing.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if userID := UserID(c); userID != "" {
			txn.AddAttribute("user.id", userID)
		}
		if role := Role(c); role != "" {
			txn.AddAttribute("user.role", string(role))
		}
		if id := c.Param("id"); id != "" {
			txn.AddAttribute("resource.id", id)
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
