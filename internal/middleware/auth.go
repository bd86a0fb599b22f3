package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/capilarmax/clinic-api/internal/handler"
	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/service/access"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
)

// SessionResolver maps a bearer token onto a live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*model.Session, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
}

func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate resolves the bearer token and stores the session in the
// gin context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handler.Error(c, apperrors.Unauthorized(errors.New("missing authorization header")))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			handler.Error(c, apperrors.Unauthorized(errors.New("invalid authorization format")))
			return
		}

		sess, err := m.sessions.Resolve(c.Request.Context(), parts[1])
		if err != nil {
			handler.Error(c, err)
			return
		}

		handler.SetSession(c, sess)
		c.Next()
	}
}

// RequirePermission rejects sessions whose role lacks permission.
func (m *AuthMiddleware) RequirePermission(permission model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := handler.CurrentSession(c)
		if err != nil {
			handler.Error(c, err)
			return
		}
		if !access.Can(sess.User.Role, permission) {
			handler.Error(c, apperrors.Forbidden("permission denied: "+string(permission)))
			return
		}
		c.Next()
	}
}
