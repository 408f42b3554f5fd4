package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "stockroom/internal/core/context"
)

const (
	HeaderOperatorID = "X-Operator-ID"
	HeaderTerminal   = "X-Terminal"
)

// Operator copies the operator identity set by the upstream gateway into the
// request context, where the domain layer reads it via appctx.GetOperatorID.
//
// Usage in router:
//
//	api.Use(middleware.Operator())
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := strings.TrimSpace(c.GetHeader(HeaderOperatorID))
		if operatorID != "" {
			ctx := appctx.WithOperator(c.Request.Context(), &appctx.Operator{
				OperatorID: operatorID,
				Terminal:   strings.TrimSpace(c.GetHeader(HeaderTerminal)),
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
