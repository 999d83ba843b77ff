package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCauseDoesNotMutateSentinel(t *testing.T) {
	cause := stderrors.New("boom")
	wrapped := ErrInternal.WithCause(cause)

	assert.Nil(t, ErrInternal.Cause)
	assert.ErrorIs(t, wrapped, cause)
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ToHTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(ErrValidation.WithDetail("message", "bad limit")))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(stderrors.New("plain")))
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(ErrValidation.WithDetail("message", "limit must be positive"))

	assert.Equal(t, "VALIDATION_ERROR", resp["error_code"])
	details, ok := resp["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "limit must be positive", details["message"])
}

func TestToErrorResponseWrapsUnknownErrors(t *testing.T) {
	resp := ToErrorResponse(stderrors.New("db down"))
	assert.Equal(t, "INTERNAL_ERROR", resp["error_code"])
}

func TestRecoverPanic(t *testing.T) {
	assert.NoError(t, RecoverPanic(nil))

	err := RecoverPanic("something broke")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INTERNAL_ERROR")

	cause := stderrors.New("typed panic")
	assert.ErrorIs(t, RecoverPanic(cause), cause)
}
