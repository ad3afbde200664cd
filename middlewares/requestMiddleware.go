package middlewares

import (
	"net/http"
	"strings"

	"github.com/akkupratap323/warehouse-inventory/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderCorrelationId = "X-Correlation-Id"
	HeaderRequestId     = "X-Request-Id"
	HeaderUserName      = "X-User-Name"
)

// CorrelationMiddleware attaches a correlation id to the request context and
// echoes it back. Callers may supply one; otherwise a uuid is generated.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := strings.TrimSpace(c.GetHeader(HeaderCorrelationId))
		if cid == "" {
			cid = strings.TrimSpace(c.GetHeader(HeaderRequestId))
		}
		if cid == "" {
			cid = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), cid)
		ctx = utils.SetRequestSourceInContext(ctx, "http")
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderCorrelationId, cid)
		c.Next()
	}
}

// UserNameMiddleware records the acting user name, used as created_by when a
// transaction does not name one. Identity is asserted by the upstream gateway.
func UserNameMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := strings.TrimSpace(c.GetHeader(HeaderUserName)); name != "" {
			c.Request = c.Request.WithContext(utils.SetUserNameInContext(c.Request.Context(), name))
		}
		c.Next()
	}
}

// ReadinessGate answers /healthz directly and returns 503 for everything else
// until ready reports true.
func ReadinessGate(ready func() bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if !ready() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": utils.ErrorNotReady.Error()})
			return
		}
		c.Next()
	}
}
