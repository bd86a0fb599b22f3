package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := map[*AppError]int{
		NotFound("patient", nil):       http.StatusNotFound,
		BadRequest("bad", nil):         http.StatusBadRequest,
		NewValidation("incomplete"):    http.StatusUnprocessableEntity,
		Unauthorized(nil):              http.StatusUnauthorized,
		Forbidden("permission denied"): http.StatusForbidden,
		Internal(fmt.Errorf("boom")):   http.StatusInternalServerError,
		{Code: ErrRateLimited}:         http.StatusTooManyRequests,
	}
	for err, status := range cases {
		assert.Equal(t, status, err.StatusCode(), err.Message)
	}
}

func TestIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("failed to update patient: %w", NotFound("patient", nil))

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "patient not found", appErr.Message)
}
