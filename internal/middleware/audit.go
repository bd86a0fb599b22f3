package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/capilarmax/clinic-api/internal/service/audit"
)

// AuditContext copies the client address, user agent and request id into the
// request context so audit entries written by services can name the caller.
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithRequestInfo(c.Request.Context(), audit.RequestInfo{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: c.GetString(ContextRequestID),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
