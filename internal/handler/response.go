package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/capilarmax/clinic-api/pkg/errors"
)

type Response struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Details   []string    `json:"details,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// NewAppErrorResponse renders err for clients. Internal causes are never
// exposed; AppErrors contribute their message and details.
func NewAppErrorResponse(err error) (int, *Response) {
	appErr, ok := apperrors.As(err)
	if !ok {
		return http.StatusInternalServerError, NewErrorResponse("internal server error")
	}
	resp := NewErrorResponse(appErr.Message)
	resp.Details = appErr.Details
	return appErr.StatusCode(), resp
}

// Error hands err to the error middleware and stops the chain.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BindJSON decodes the request body into obj. On failure the error is
// recorded and false is returned.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		Error(c, apperrors.BadRequest("invalid request body", err))
		return false
	}
	return true
}
