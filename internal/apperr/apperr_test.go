package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "InvalidArgument", err: apperr.InvalidArgument("bad %s", "input"), want: apperr.KindInvalidArgument},
		{name: "WrappedNotFound", err: fmt.Errorf("loading: %w", apperr.NotFound("item %s", "x")), want: apperr.KindNotFound},
		{name: "Foreign", err: errors.New("boom"), want: apperr.KindInternal},
		{name: "Conflict", err: apperr.Conflict(nil), want: apperr.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, apperr.IsRetryable(apperr.Conflict(errors.New("serialization failure"))))
	assert.True(t, apperr.IsRetryable(fmt.Errorf("commit: %w", apperr.ErrConflict)))
	assert.False(t, apperr.IsRetryable(apperr.FailedPrecondition("already deleted")))
	assert.False(t, apperr.IsRetryable(apperr.Internal(errors.New("disk"), "write blob")))
}

func TestConflictWrapsSentinel(t *testing.T) {
	err := apperr.Conflict(errors.New("40001"))
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(apperr.InvalidArgument("x")))
	assert.Equal(t, http.StatusNotFound, apperr.HTTPStatus(apperr.NotFound("x")))
	assert.Equal(t, http.StatusConflict, apperr.HTTPStatus(apperr.FailedPrecondition("x")))
	assert.Equal(t, http.StatusUnauthorized, apperr.HTTPStatus(apperr.Unauthenticated("x")))
	assert.Equal(t, http.StatusForbidden, apperr.HTTPStatus(apperr.PermissionDenied("x")))
	assert.Equal(t, http.StatusServiceUnavailable, apperr.HTTPStatus(apperr.Conflict(nil)))
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(errors.New("boom")))
}
