package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	assert.Equal(t, "[STATE_ERROR] service busy", State("service busy").Error())

	err := Transport(context.DeadlineExceeded, "request has timed out.")
	assert.Equal(t, "[TRANSPORT_ERROR] request has timed out.: context deadline exceeded", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))

	err := Transport(nil, "Could not communicate with the server")
	require.NotNil(t, err)
	assert.Nil(t, err.Err)
	assert.Equal(t, ErrCodeTransport, err.Code)
}

func TestCodeHelpers(t *testing.T) {
	base := Backend("Username taken").WithDetail("status", 409)
	wrapped := fmt.Errorf("register: %w", base)

	assert.True(t, IsCode(wrapped, ErrCodeBackend))
	assert.False(t, IsCode(wrapped, ErrCodeTransport))
	assert.Equal(t, ErrCodeBackend, GetCode(wrapped))
	assert.Equal(t, map[string]interface{}{"status": 409}, GetDetails(wrapped))

	assert.Equal(t, ErrCodeInternal, GetCode(fmt.Errorf("plain")))
	assert.Nil(t, GetDetails(fmt.Errorf("plain")))

	var e *Error
	require.True(t, As(wrapped, &e))
	assert.Equal(t, "Username taken", e.Message)
	assert.True(t, Is(Transport(context.Canceled, "aborted"), context.Canceled))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeConfiguration, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeState, http.StatusConflict},
		{ErrCodeTransport, http.StatusServiceUnavailable},
		{ErrCodeProvider, http.StatusBadGateway},
		{ErrCodeBackend, http.StatusBadGateway},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatusCode())
		})
	}
}

func TestResourceConstructors(t *testing.T) {
	assert.Equal(t, "account not found: 42", NotFound("account", "42").Message)
	assert.Equal(t, "username already exists: ada", AlreadyExists("username", "ada").Message)
	assert.Equal(t, "invalid email: bad format", InvalidInput("email", "bad format").Message)
}
