package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	detailed := ErrMalformedImport.WithDetails(map[string]interface{}{"type": "null"})

	assert.Equal(t, "null", detailed.Details["type"])
	assert.Empty(t, ErrMalformedImport.Details)
	assert.Equal(t, http.StatusUnprocessableEntity, detailed.StatusCode)
	assert.True(t, errors.Is(detailed, ErrMalformedImport))
	assert.False(t, errors.Is(detailed, ErrUnsupportedFile))
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("load farm: %w", ErrFarmNotFound)

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "FARM_NOT_FOUND", appErr.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestWithMessage(t *testing.T) {
	e := ErrInvalidRequest.WithMessage("code is required")

	assert.Equal(t, "INVALID_REQUEST: code is required", e.Error())
	assert.Equal(t, "Invalid request parameters", ErrInvalidRequest.Message)
}
