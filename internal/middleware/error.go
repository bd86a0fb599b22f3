package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/capilarmax/clinic-api/internal/handler"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
)

// ErrorHandler renders the last error a handler recorded with c.Error as the
// standard error envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			level := zerolog.WarnLevel
			if appErr, ok := apperrors.As(e.Err); !ok || appErr.StatusCode() >= 500 {
				level = zerolog.ErrorLevel
			}
			log.WithLevel(level).
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}
		status, resp := handler.NewAppErrorResponse(c.Errors.Last().Err)
		resp.RequestID = requestID
		c.JSON(status, resp)
	}
}
