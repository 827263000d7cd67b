package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUpstream, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("lookup: %w", Internal("storage failure", cause))

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, CodeInternal, e.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("missing")))
	assert.True(t, Is(Conflict("dup"), CodeConflict))
	assert.False(t, Is(nil, CodeConflict))
}

func TestValidationCarriesFields(t *testing.T) {
	err := Validation([]FieldError{{Field: "email", Message: "Email is required"}})
	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "Validation failed", err.Message)
	require.Len(t, err.Fields, 1)
	assert.Equal(t, "email", err.Fields[0].Field)

	single := Invalid("id", "Invalid application id")
	require.Len(t, single.Fields, 1)
	assert.Equal(t, "id", single.Fields[0].Field)
}
