package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/capilarmax/clinic-api/internal/model"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
)

const (
	ContextSession   = "session"
	ContextRequestID = "request_id"
)

func SetSession(c *gin.Context, sess *model.Session) {
	c.Set(ContextSession, sess)
}

// CurrentSession returns the session the auth middleware attached.
func CurrentSession(c *gin.Context) (*model.Session, error) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, apperrors.Unauthorized(nil)
	}
	sess, ok := v.(*model.Session)
	if !ok || sess == nil {
		return nil, apperrors.Unauthorized(nil)
	}
	return sess, nil
}
