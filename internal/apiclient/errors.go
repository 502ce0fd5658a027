package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes attached to HTTPError, mirroring how the backend's
// status codes are treated by the console.
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "RESOURCE_NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeBadRequest   = "INVALID_REQUEST"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeServer       = "SERVER_ERROR"
)

// HTTPError is a non-2xx response from the admin API.
type HTTPError struct {
	Code       string
	StatusCode int
	Method     string
	Path       string
	// Message is the server-supplied message, empty when the body had none.
	Message string
	Body    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// TransportError means no response was received from the server.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func newHTTPError(statusCode int, method, path string, body []byte) *HTTPError {
	return &HTTPError{
		Code:       codeForStatus(statusCode),
		StatusCode: statusCode,
		Method:     method,
		Path:       path,
		Message:    serverMessage(body),
		Body:       string(body),
	}
}

func codeForStatus(statusCode int) string {
	switch {
	case statusCode == http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case statusCode == http.StatusForbidden:
		return ErrCodeForbidden
	case statusCode == http.StatusNotFound:
		return ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrCodeRateLimited
	case statusCode == http.StatusConflict:
		return ErrCodeConflict
	case statusCode >= 500:
		return ErrCodeServer
	default:
		return ErrCodeBadRequest
	}
}

// serverMessage extracts {"message": ...} or {"error": ...} from an
// error body.
func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(payload.Error)
}

// Message chooses the user-facing text for a failed call: the server's
// message when the backend sent one, the action's fallback otherwise.
// Transport errors always use the fallback.
func Message(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return fallback
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
