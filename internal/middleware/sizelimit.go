package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capilarmax/clinic-api/internal/handler"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
)

// Signature uploads are base64 PNG data URLs and need more room than the
// rest of the JSON API.
const (
	DefaultMaxBodySize      int64 = 256 << 10
	DefaultMaxSignatureSize int64 = 4 << 20
)

// BodyLimitConfig caps request bodies at Max. Routes, keyed by the gin full
// path, override the cap for single routes.
type BodyLimitConfig struct {
	Max    int64
	Routes map[string]int64
}

// BodyLimit rejects requests declaring a body larger than max and caps the
// reader for those that do not declare one.
func BodyLimit(max int64) gin.HandlerFunc {
	return BodyLimits(BodyLimitConfig{Max: max})
}

func BodyLimits(cfg BodyLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		max := cfg.Max
		if limit, ok := cfg.Routes[c.FullPath()]; ok {
			max = limit
		}
		if c.Request.ContentLength > max {
			handler.Error(c, &apperrors.AppError{
				Code:    apperrors.ErrBadRequest,
				Message: fmt.Sprintf("request body exceeds %d bytes", max),
			})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}
