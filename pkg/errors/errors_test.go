package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NewAppError(ErrInvalidState, "intent is terminal", nil)
	wrapped := Wrap(fmt.Errorf("advance: %w", base), "failed to advance intent")

	assert.Equal(t, ErrInvalidState, CodeOf(wrapped))
	assert.True(t, Is(wrapped, base))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrInternal, CodeOf(New("boom")))
	assert.Equal(t, "", CodeOf(nil))
}

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", NewAppError(ErrNotFound, "intent not found", nil), http.StatusNotFound},
		{"invalid state", NewAppError(ErrInvalidState, "terminal", nil), http.StatusConflict},
		{"provider", NewAppError(ErrProvider, "declined", nil), http.StatusBadGateway},
		{"partial failure", NewAppError(ErrPartialFailure, "contact support", nil), http.StatusInternalServerError},
		{"plain error", New("db down"), http.StatusInternalServerError},
		{"echo error", echo.NewHTTPError(http.StatusTeapot, "tea"), http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := ToHTTPError(tt.err)
			assert.Equal(t, tt.status, httpErr.Code)
		})
	}
}

func TestToHTTPErrorHidesInternalMessage(t *testing.T) {
	httpErr := ToHTTPError(New("pq: password authentication failed"))
	body, ok := httpErr.Message.(echo.Map)
	assert.True(t, ok)
	assert.Equal(t, "Internal Server Error", body["error"])
}

func TestToGRPCError(t *testing.T) {
	err := ToGRPCError(NewAppError(ErrInvalidState, "terminal", nil))
	st, ok := status.FromError(err)
	assert.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())

	assert.NoError(t, ToGRPCError(nil))
}
