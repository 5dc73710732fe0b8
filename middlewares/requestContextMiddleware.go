package middlewares

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/utils"
)

// RequestContextMiddleware threads store and actor identity from request
// headers into the request context. The core never reads ambient session
// state; operations that need a store take it from here or from their
// own parameters.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if storeCode := c.GetHeader("X-Store-Code"); storeCode != "" {
			ctx = context.WithValue(ctx, utils.ContextKeyStoreCode, storeCode)
		}
		if userName := c.GetHeader("X-User-Name"); userName != "" {
			ctx = context.WithValue(ctx, utils.ContextKeyUserName, userName)
		}
		correlationId := c.GetHeader("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = context.WithValue(ctx, utils.ContextKeyCorrelationId, correlationId)

		c.Writer.Header().Set("X-Correlation-Id", correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
