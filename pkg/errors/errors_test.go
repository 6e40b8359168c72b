package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessageAndUnwrap(t *testing.T) {
	base := New("PROPOSAL_FULL", "This trip is full", http.StatusConflict)
	require.Equal(t, "This trip is full", base.Error())
	require.Nil(t, base.Unwrap())

	inner := errors.New("count 3 >= cap 3")
	withInternal := base.WithInternal(inner)
	require.Equal(t, "This trip is full: count 3 >= cap 3", withInternal.Error())
	require.ErrorIs(t, withInternal, inner)

	// WithInternal copies: the sentinel stays clean.
	require.Nil(t, base.Internal)
}

func TestSentinelMatchingThroughWrapping(t *testing.T) {
	sentinel := New("INVALID_TRANSITION", "Already finalized", http.StatusConflict)

	wrapped := fmt.Errorf("transition: %w", sentinel)
	require.ErrorIs(t, wrapped, sentinel)

	var appErr *AppError
	require.ErrorAs(t, wrapped, &appErr)
	require.Equal(t, "INVALID_TRANSITION", appErr.Code)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(ErrForbidden)
	require.Equal(t, ErrForbidden.Code, appErr.Code)

	plain := FromError(errors.New("disk on fire"))
	require.Equal(t, ErrInternalServer.Code, plain.Code)
	require.Equal(t, http.StatusInternalServerError, plain.StatusCode)
	// The original error is retained for logging but not exposed in Message.
	require.Equal(t, "Internal server error: disk on fire", plain.Error())
	require.Equal(t, "Internal server error", plain.Message)
}

func TestWrapAndNewBadRequest(t *testing.T) {
	inner := errors.New("boom")
	wrapped := Wrap(inner, "saving proposal failed")
	require.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
	require.ErrorIs(t, wrapped, inner)

	bad := NewBadRequest("title is required")
	require.Equal(t, ErrBadRequest.Code, bad.Code)
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
	require.Equal(t, "title is required", bad.Message)
}
