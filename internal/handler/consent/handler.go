package consent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/capilarmax/clinic-api/internal/handler"
	"github.com/capilarmax/clinic-api/internal/middleware"
	"github.com/capilarmax/clinic-api/internal/model"
	consentsvc "github.com/capilarmax/clinic-api/internal/service/consent"
)

type Service interface {
	Open(ctx context.Context, sess *model.Session, patientID string) (*consentsvc.DraftView, error)
	Draft(ctx context.Context, sess *model.Session, patientID string) (*consentsvc.DraftView, error)
	ToggleInitial(ctx context.Context, sess *model.Session, patientID, section string) (*consentsvc.DraftView, error)
	SetSignature(ctx context.Context, sess *model.Session, patientID, party, image string) (*consentsvc.DraftView, error)
	SetRepresentativeName(ctx context.Context, sess *model.Session, patientID, name string) (*consentsvc.DraftView, error)
	SetMarketing(ctx context.Context, sess *model.Session, patientID, choice string) (*consentsvc.DraftView, error)
	Submit(ctx context.Context, sess *model.Session, patientID string) (*model.ConsentRecord, error)
	Discard(ctx context.Context, sess *model.Session, patientID string) error
	Export(ctx context.Context, sess *model.Session, patientID string, w io.Writer) (string, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// SignatureRoute is the signature upload path relative to the group passed
// to RegisterRoutes. Uploads are PNG data URLs and need a larger body limit.
const SignatureRoute = "/patients/:id/consent/draft/signatures/:party"

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.PUT(SignatureRoute, h.SetSignature)

	consent := r.Group("/patients/:id/consent")
	{
		draft := consent.Group("/draft")
		draft.POST("", h.Open)
		draft.GET("", h.Get)
		draft.DELETE("", h.Discard)
		draft.POST("/initials/:section", h.ToggleInitial)
		draft.PUT("/representative", h.SetRepresentative)
		draft.PUT("/marketing", h.SetMarketing)
		draft.POST("/submit", auth.RequirePermission(model.PermSignConsent), h.Submit)

		consent.GET("/pdf", h.Export)
	}
}

// draftCall runs fn for the current session and renders the resulting view.
func (h *Handler) draftCall(c *gin.Context, status int, fn func(ctx context.Context, sess *model.Session, patientID string) (*consentsvc.DraftView, error)) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	view, err := fn(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(status, handler.NewSuccessResponse(view))
}

func (h *Handler) Open(c *gin.Context) {
	h.draftCall(c, http.StatusCreated, h.service.Open)
}

func (h *Handler) Get(c *gin.Context) {
	h.draftCall(c, http.StatusOK, h.service.Draft)
}

func (h *Handler) ToggleInitial(c *gin.Context) {
	section := c.Param("section")
	h.draftCall(c, http.StatusOK, func(ctx context.Context, sess *model.Session, patientID string) (*consentsvc.DraftView, error) {
		return h.service.ToggleInitial(ctx, sess, patientID, section)
	})
}

func (h *Handler) SetSignature(c *gin.Context) {
	var req model.SignatureRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	party := c.Param("party")
	h.draftCall(c, http.StatusOK, func(ctx context.Context, sess *model.Session, patientID string) (*consentsvc.DraftView, error) {
		return h.service.SetSignature(ctx, sess, patientID, party, req.Image)
	})
}

func (h *Handler) SetRepresentative(c *gin.Context) {
	var req model.RepresentativeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	h.draftCall(c, http.StatusOK, func(ctx context.Context, sess *model.Session, patientID string) (*consentsvc.DraftView, error) {
		return h.service.SetRepresentativeName(ctx, sess, patientID, req.Name)
	})
}

func (h *Handler) SetMarketing(c *gin.Context) {
	var req model.MarketingRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	h.draftCall(c, http.StatusOK, func(ctx context.Context, sess *model.Session, patientID string) (*consentsvc.DraftView, error) {
		return h.service.SetMarketing(ctx, sess, patientID, req.Choice)
	})
}

func (h *Handler) Submit(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	rec, err := h.service.Submit(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(rec))
}

func (h *Handler) Discard(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if err := h.service.Discard(c.Request.Context(), sess, c.Param("id")); err != nil {
		handler.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export streams the signed consent form as a PDF attachment.
func (h *Handler) Export(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	// Rendered into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	filename, err := h.service.Export(c.Request.Context(), sess, c.Param("id"), &buf)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// attachment builds an RFC 6266 Content-Disposition value: an ASCII
// filename fallback plus the exact name as UTF-8 in filename*.
func attachment(filename string) string {
	var fallback, encoded strings.Builder
	for _, r := range filename {
		switch {
		case r == '"' || r == '\\' || r < 0x20 || r > 0x7e:
			fallback.WriteByte('_')
		default:
			fallback.WriteRune(r)
		}
	}
	for _, b := range []byte(filename) {
		if isAttrChar(b) {
			encoded.WriteByte(b)
			continue
		}
		fmt.Fprintf(&encoded, "%%%02X", b)
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback.String(), encoded.String())
}

// isAttrChar reports whether b may appear unescaped in an RFC 5987 value.
func isAttrChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", b) >= 0
}
