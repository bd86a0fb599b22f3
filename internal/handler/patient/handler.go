package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capilarmax/clinic-api/internal/handler"
	"github.com/capilarmax/clinic-api/internal/middleware"
	"github.com/capilarmax/clinic-api/internal/model"
	"github.com/capilarmax/clinic-api/internal/service/patient"
	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the record endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.ListPatients)
		patients.POST("", auth.RequirePermission(model.PermAddPatient), h.CreatePatient)
		patients.GET("/:id", h.GetPatient)
		patients.PATCH("/:id", auth.RequirePermission(model.PermAddPatient), h.UpdatePatient)
		patients.POST("/:id/vitals", h.AppendVital)
		patients.POST("/:id/schedule", auth.RequirePermission(model.PermScheduleOperation), h.Schedule)
		patients.POST("/:id/notes", auth.RequirePermission(model.PermEditNotes), h.AddNote)
	}
	r.GET("/calendar", h.Calendar)
	r.GET("/dashboard", h.Dashboard)
	r.GET("/documents", h.Documents)
}

func (h *Handler) ListPatients(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	var filters model.PatientFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		handler.Error(c, apperrors.BadRequest("invalid query", err))
		return
	}

	patients, err := h.service.ListPatients(c.Request.Context(), sess, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) CreatePatient(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	var draft model.PatientDraft
	if !handler.BindJSON(c, &draft) {
		return
	}

	p, err := h.service.CreatePatient(c.Request.Context(), sess, &draft)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) GetPatient(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	var update model.PatientUpdate
	if !handler.BindJSON(c, &update) {
		return
	}

	p, err := h.service.UpdatePatient(c.Request.Context(), sess, c.Param("id"), &update)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) AppendVital(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	var draft model.VitalDraft
	if !handler.BindJSON(c, &draft) {
		return
	}

	p, err := h.service.AppendVital(c.Request.Context(), sess, c.Param("id"), &draft)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) Schedule(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	var req model.ScheduleRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Schedule(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) AddNote(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	var req model.NoteRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.AddNote(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

// Calendar lists the operations booked on ?date=, today when omitted.
func (h *Handler) Calendar(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	day, err := h.service.Calendar(c.Request.Context(), sess, c.Query("date"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(day))
}

func (h *Handler) Dashboard(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}
	var est model.GraftEstimateRequest
	if err := c.ShouldBindQuery(&est); err != nil {
		handler.Error(c, apperrors.BadRequest("invalid query", err))
		return
	}

	summary, err := h.service.Dashboard(c.Request.Context(), sess, &est)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}

// Documents lists document folders of visible patients, narrowed by ?search=
// on the full name.
func (h *Handler) Documents(c *gin.Context) {
	sess, err := handler.CurrentSession(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	folders, err := h.service.Documents(c.Request.Context(), sess, c.Query("search"))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(folders))
}
