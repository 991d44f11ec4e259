package error

import (
	"context"
	"errors"
	"net/http"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeInternal          = "INTERNAL_ERROR"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeInvalidInput      = "ANALYSIS_INVALID_INPUT"
	CodeProxyError        = "ANALYSIS_PROXY_ERROR"
	CodeMalformedResponse = "ANALYSIS_MALFORMED_RESPONSE"
)

var (
	ErrBadRequest      = &AppError{Code: CodeBadRequest, Message: "Bad request", Status: http.StatusBadRequest}
	ErrNotFound        = &AppError{Code: CodeNotFound, Message: "Not found", Status: http.StatusNotFound}
	ErrInternalServer  = &AppError{Code: CodeInternal, Message: "Internal server error", Status: http.StatusInternalServerError}
	ErrTooManyRequests = &AppError{Code: CodeTooManyRequests, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests}

	// Analysis failure kinds
	ErrInvalidInput      = &AppError{Code: CodeInvalidInput, Message: "Code, user query, and rules must be provided.", Status: http.StatusBadRequest}
	ErrProxy             = &AppError{Code: CodeProxyError, Message: "Proxy Error", Status: http.StatusBadGateway}
	ErrMalformedResponse = &AppError{Code: CodeMalformedResponse, Message: "Failed to parse analysis from AI. The response was not valid JSON.", Status: http.StatusBadGateway}
)

// UnknownProxyError is used when neither the server nor the transport supplied a detail
const UnknownProxyError = "Unknown proxy error"

func NewBadRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

func NewInternalServer(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError}
}

// NewProxyError builds a transport failure whose message is "Proxy Error: <detail>"
func NewProxyError(detail string, cause error) *AppError {
	if detail == "" {
		detail = UnknownProxyError
	}
	status := http.StatusBadGateway
	if errors.Is(cause, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	return &AppError{Code: CodeProxyError, Message: "Proxy Error: " + detail, Status: status, Cause: cause}
}

// NewMalformedResponse wraps a decode failure without exposing the raw payload
func NewMalformedResponse(cause error) *AppError {
	return &AppError{Code: CodeMalformedResponse, Message: ErrMalformedResponse.Message, Status: ErrMalformedResponse.Status, Cause: cause}
}

func MapError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalServer("An unexpected error occurred")
}
