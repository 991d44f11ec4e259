package error

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProxyError(t *testing.T) {
	err := NewProxyError("upstream exploded", nil)
	assert.Equal(t, "Proxy Error: upstream exploded", err.Error())
	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.True(t, errors.Is(err, ErrProxy))
	assert.False(t, errors.Is(err, ErrMalformedResponse))

	empty := NewProxyError("", nil)
	assert.Equal(t, "Proxy Error: Unknown proxy error", empty.Error())
}

func TestNewProxyError_Timeout(t *testing.T) {
	cause := fmt.Errorf("post: %w", context.DeadlineExceeded)
	err := NewProxyError(cause.Error(), cause)
	assert.Equal(t, http.StatusGatewayTimeout, err.Status)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewMalformedResponse(t *testing.T) {
	cause := errors.New("invalid character 'x' looking for beginning of value")
	err := NewMalformedResponse(cause)
	assert.Equal(t, ErrMalformedResponse.Message, err.Error())
	assert.NotContains(t, err.Error(), "invalid character")
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.ErrorIs(t, err, cause)
}

func TestMapError(t *testing.T) {
	wrapped := fmt.Errorf("analyze: %w", ErrInvalidInput)
	assert.Equal(t, ErrInvalidInput, MapError(wrapped))

	mapped := MapError(errors.New("boom"))
	assert.Equal(t, CodeInternal, mapped.Code)
	assert.Equal(t, http.StatusInternalServerError, mapped.Status)
}
