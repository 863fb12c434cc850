// Package errors provides the uniform error taxonomy used at every component
// boundary: a category for HTTP mapping, a stable code, and a retry hint.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeValidation indicates invalid input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeNotFound indicates resource not found (HTTP 404)
	TypeNotFound ErrorType = "not_found"
	// TypeUnauthorized indicates a missing or expired credential (HTTP 401)
	TypeUnauthorized ErrorType = "unauthorized"
	// TypeRateLimited indicates the upstream rejected us for quota reasons (HTTP 429)
	TypeRateLimited ErrorType = "rate_limited"
	// TypeInternal indicates server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
	// TypeExternal indicates external service error (HTTP 502)
	TypeExternal ErrorType = "external"
	// TypeStorage indicates a cache or database failure (HTTP 503)
	TypeStorage ErrorType = "storage"
)

// Stable codes exposed to API clients.
const (
	CodeAuthExpired      = "AUTH_EXPIRED"
	CodeAuthError        = "AUTH_ERROR"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeRateLimit        = "RATE_LIMIT"
	CodeNetwork          = "NETWORK_ERROR"
	CodeRequestSetup     = "REQUEST_SETUP_ERROR"
	CodeTwitchAPI        = "TWITCH_API_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
	CodeUnknown          = "UNKNOWN_ERROR"
)

const (
	contextKeyRetryAfter  = "retry_after"
	contextKeyStatusCode  = "status"
	contextKeyStorageOp   = "operation"
	rateLimitResetHeader  = "Ratelimit-Reset"
	defaultRetryAfterHint = time.Second
)

// Error is the structured error carried across component boundaries.
type Error struct {
	Type      ErrorType
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Context   map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code an API response should carry.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeUnauthorized:
		return http.StatusUnauthorized
	case TypeRateLimited:
		return http.StatusTooManyRequests
	case TypeExternal:
		return http.StatusBadGateway
	case TypeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RetryAfter reports the upstream's rate-limit reset hint, if one was given.
func (e *Error) RetryAfter() (time.Duration, bool) {
	d, ok := e.Context[contextKeyRetryAfter].(time.Duration)
	return d, ok
}

// IsRetryable reports whether err, once classified, may succeed on another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Retryable
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	var structured *Error
	if !errors.As(err, &structured) {
		return false
	}
	return structured.Code == code
}

func newError(t ErrorType, code, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      t,
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
		Context:   make(map[string]any),
	}
}

// ValidationError creates a new validation error (HTTP 400).
func ValidationError(message string) *Error {
	return newError(TypeValidation, CodeValidation, message, false, nil)
}

// NotFoundError creates a new not-found error (HTTP 404).
func NotFoundError(message string) *Error {
	return newError(TypeNotFound, CodeNotFound, message, false, nil)
}

// NotAuthenticatedError reports that no credential is available.
func NotAuthenticatedError() *Error {
	return newError(TypeUnauthorized, CodeNotAuthenticated, "not authenticated", false, nil)
}

// AuthError reports a malformed or incomplete OAuth response.
func AuthError(message string) *Error {
	return newError(TypeUnauthorized, CodeAuthError, message, false, nil)
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, CodeInternal, message, false, cause)
}

// ExternalError creates a new external service error (HTTP 502).
func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, CodeTwitchAPI, message, false, cause)
}

// NetworkError wraps a transport failure where no response was received.
func NetworkError(cause error) *Error {
	return newError(TypeExternal, CodeNetwork, "network error, please check your connection", true, cause)
}

// RequestSetupError wraps a failure to build an outgoing request.
func RequestSetupError(cause error) *Error {
	return newError(TypeInternal, CodeRequestSetup, "failed to set up request", false, cause)
}

// StorageError wraps a persistence failure for operation op ("get", "set", "delete").
func StorageError(op string, cause error) *Error {
	code := fmt.Sprintf("STORAGE_%s_ERROR", strings.ToUpper(op))
	return newError(TypeStorage, code, "failed to "+op+" data in storage", true, cause).
		WithContext(contextKeyStorageOp, op)
}

// FromHTTPStatus classifies a non-2xx upstream response.
func FromHTTPStatus(status int, header http.Header, message string) *Error {
	var err *Error
	switch {
	case status == http.StatusUnauthorized:
		err = newError(TypeUnauthorized, CodeAuthExpired, "authentication expired, please log in again", false, nil)
	case status == http.StatusTooManyRequests:
		err = newError(TypeRateLimited, CodeRateLimit, "rate limit exceeded, please try again later", true, nil)
		err.WithContext(contextKeyRetryAfter, resetHint(header))
	case status >= 500:
		err = newError(TypeExternal, "HTTP_"+strconv.Itoa(status), message, true, nil)
	default:
		err = newError(TypeExternal, CodeTwitchAPI, message, false, nil)
	}
	return err.WithContext(contextKeyStatusCode, status)
}

// resetHint turns Twitch's Ratelimit-Reset (unix seconds) into a wait duration.
func resetHint(header http.Header) time.Duration {
	raw := header.Get(rateLimitResetHeader)
	if raw == "" {
		return defaultRetryAfterHint
	}
	reset, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return defaultRetryAfterHint
	}
	wait := time.Until(time.Unix(reset, 0))
	if wait <= 0 {
		return defaultRetryAfterHint
	}
	return wait
}

// Classify normalizes any error into the taxonomy. Structured errors pass
// through; transport failures and timeouts become retryable network errors;
// a cancelled request is a non-retryable network error; everything else is an
// unknown, non-retryable error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}

	if errors.Is(err, context.Canceled) {
		return newError(TypeExternal, CodeNetwork, "request cancelled", false, err)
	}

	// http.Client timeouts also match context.DeadlineExceeded.
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return NetworkError(err)
	}

	return newError(TypeInternal, CodeUnknown, "an unexpected error occurred", false, err)
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithField is an alias for WithContext (chainable).
func (e *Error) WithField(key string, value any) *Error {
	return e.WithContext(key, value)
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	Type      ErrorType      `json:"type"`
	Retryable bool           `json:"retryable"`
	Context   map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	ctx := make(map[string]any, len(e.Context))
	for k, v := range e.Context {
		if d, ok := v.(time.Duration); ok {
			ctx[k] = d.Seconds()
			continue
		}
		ctx[k] = v
	}
	return ErrorResponse{
		Error:     e.Message,
		Code:      e.Code,
		Type:      e.Type,
		Retryable: e.Retryable,
		Context:   ctx,
	}
}

// AsStructuredError converts any error into a structured Error for an API response.
// Unclassifiable errors are reported as internal errors.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
