package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad input"), http.StatusBadRequest},
		{NotFoundError("missing"), http.StatusNotFound},
		{UnavailableError("store down", errors.New("dial tcp")), http.StatusServiceUnavailable},
		{InternalError("boom", errors.New("cause")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus(), "type %s", tt.err.Type)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := UnavailableError("store down", cause)

	assert.Contains(t, err.Error(), "store down")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestWithContextChaining(t *testing.T) {
	err := ValidationError("limit out of range").
		WithContext("limit", 5000).
		WithContext("max_limit", 1000)

	assert.Equal(t, 5000, err.Context["limit"])
	assert.Equal(t, 1000, err.Context["max_limit"])

	resp := err.ToResponse()
	assert.Equal(t, "limit out of range", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, err.Context, resp.Context)
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured error preserved", func(t *testing.T) {
		original := ValidationError("bad")
		got := AsStructuredError(original)
		assert.Same(t, original, got)
	})

	t.Run("wrapped structured error unwrapped", func(t *testing.T) {
		original := NotFoundError("missing")
		wrapped := fmt.Errorf("handler: %w", original)
		got := AsStructuredError(wrapped)
		assert.Same(t, original, got)
	})

	t.Run("unknown participant maps to not found", func(t *testing.T) {
		err := fmt.Errorf("rank lookup: %w", domain.ErrParticipantNotFound)
		got := AsStructuredError(err)
		require.NotNil(t, got)
		assert.Equal(t, TypeNotFound, got.Type)
	})

	t.Run("store outage maps to unavailable", func(t *testing.T) {
		err := fmt.Errorf("zincrby failed: %w: %w", domain.ErrStoreUnavailable, errors.New("EOF"))
		got := AsStructuredError(err)
		require.NotNil(t, got)
		assert.Equal(t, TypeUnavailable, got.Type)
	})

	t.Run("unrecognized error becomes internal", func(t *testing.T) {
		got := AsStructuredError(errors.New("something odd"))
		require.NotNil(t, got)
		assert.Equal(t, TypeInternal, got.Type)
	})
}
