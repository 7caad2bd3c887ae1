package llmadapter

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies provider call failures for retry and fallback decisions.
type ErrorCode string

const (
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeRateLimit          ErrorCode = "RATE_LIMIT"
	ErrCodeInternalServer     ErrorCode = "INTERNAL_SERVER"
	ErrCodeBadGateway         ErrorCode = "BAD_GATEWAY"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeGatewayTimeout     ErrorCode = "GATEWAY_TIMEOUT"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeQuotaExceeded      ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeInvalidModel       ErrorCode = "INVALID_MODEL"
	ErrCodeContentPolicy      ErrorCode = "CONTENT_POLICY"
	ErrCodeConnectionReset    ErrorCode = "CONNECTION_RESET"
	ErrCodeConnectionRefused  ErrorCode = "CONNECTION_REFUSED"
	ErrCodeUnknown            ErrorCode = "UNKNOWN"
)

// Error is a classified provider call failure. It wraps the original
// error so errors.Is/As chains keep working.
type Error struct {
	Code       ErrorCode
	HTTPStatus int
	Message    string
	Provider   string
	Err        error
}

// NewError creates an Error classified from an HTTP status code.
func NewError(status int, message, provider string, err error) *Error {
	return &Error{
		Code:       codeFromHTTPStatus(status),
		HTTPStatus: status,
		Message:    message,
		Provider:   provider,
		Err:        err,
	}
}

// NewErrorWithCode creates an Error with an explicit code.
func NewErrorWithCode(code ErrorCode, message, provider string, err error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Provider: provider,
		Err:      err,
	}
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("llm provider %s: %s [%s]", e.Provider, e.Message, e.Code)
	}
	return fmt.Sprintf("llm: %s [%s]", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure class is expected to be transient.
func (e *Error) Retryable() bool {
	switch e.Code {
	case ErrCodeRateLimit,
		ErrCodeTimeout,
		ErrCodeServiceUnavailable,
		ErrCodeInternalServer,
		ErrCodeBadGateway,
		ErrCodeGatewayTimeout,
		ErrCodeQuotaExceeded,
		ErrCodeConnectionReset,
		ErrCodeConnectionRefused:
		return true
	}
	return false
}

// IsLLMError extracts a classified adapter error from an error chain.
func IsLLMError(err error) (*Error, bool) {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr, true
	}
	return nil, false
}

func codeFromHTTPStatus(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeBadRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusInternalServerError:
		return ErrCodeInternalServer
	case http.StatusBadGateway:
		return ErrCodeBadGateway
	case http.StatusServiceUnavailable:
		return ErrCodeServiceUnavailable
	case http.StatusGatewayTimeout:
		return ErrCodeGatewayTimeout
	default:
		return ErrCodeUnknown
	}
}
