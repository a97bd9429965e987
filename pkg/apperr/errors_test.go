package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection refused")
	de := From(cause)

	assert.Equal(t, http.StatusInternalServerError, de.Status)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, "Internal Server Error.", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestFromKeepsDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", NotFound("Provided documentId doesnt exists"))
	de := From(wrapped)

	assert.Equal(t, http.StatusNotFound, de.Status)
	assert.Equal(t, "Provided documentId doesnt exists", de.Message)
	assert.True(t, Is(wrapped, http.StatusNotFound))
	assert.False(t, Is(wrapped, http.StatusForbidden))
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, "Invalid Data", InvalidInput("").Message)
	assert.Equal(t, http.StatusBadRequest, NoData().Status)
	assert.Equal(t, "Permission denied", Unauthorized().Message)
	assert.Equal(t, http.StatusForbidden, Unauthorized().Status)
	assert.Equal(t, http.StatusConflict, Conflict("stale").Status)
	assert.Nil(t, From(nil))
}
