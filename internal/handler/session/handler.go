package session

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capilarmax/clinic-api/internal/handler"
	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/service/access"
)

type Service interface {
	Login(ctx context.Context, userID string) (*model.SessionResponse, error)
	SwitchClinic(ctx context.Context, sess *model.Session, clinicID string) (*model.Session, error)
	Logout(ctx context.Context, sess *model.Session)
	Clinics(ctx context.Context, sess *model.Session) ([]*model.Clinic, error)
	Users(ctx context.Context) ([]*model.User, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the login endpoints.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/session", h.Login)
	r.GET("/users", h.ListUsers)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/session", h.GetSession)
	r.DELETE("/session", h.Logout)
	r.PUT("/session/clinic", h.SwitchClinic)
	r.GET("/clinics", h.ListClinics)
	r.GET("/permissions", h.ListPermissions)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req.UserID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.Users(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(sess))
}

func (h *Handler) Logout(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	h.service.Logout(c.Request.Context(), sess)
	c.Status(http.StatusNoContent)
}

func (h *Handler) SwitchClinic(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	var req model.SwitchClinicRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.SwitchClinic(c.Request.Context(), sess, req.ClinicID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ListClinics(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	clinics, err := h.service.Clinics(c.Request.Context(), sess)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinics))
}

type permissionsResponse struct {
	Role   model.Role             `json:"role"`
	Grants []model.Permission     `json:"grants"`
	Matrix []model.PermissionInfo `json:"matrix"`
}

// ListPermissions returns the full matrix along with the caller's grants.
func (h *Handler) ListPermissions(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(permissionsResponse{
		Role:   sess.User.Role,
		Grants: access.Permissions(sess.User.Role),
		Matrix: model.PermissionMatrix,
	}))
}
