// Package apperr holds the error kinds shared by the store, the quote adapter
// and the HTTP layer. Lower layers wrap one of the sentinels with %w; only the
// api package turns them into status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrAuth          = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUpstream      = errors.New("upstream error")
	ErrStorage       = errors.New("storage error")
	ErrNotConfigured = errors.New("service not configured")
)

// Validation returns an ErrValidation carrying a client-facing message.
func Validation(format string, args ...any) error {
	return &messageError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound carrying a client-facing message.
func NotFound(format string, args ...any) error {
	return &messageError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Conflict returns an ErrConflict carrying a client-facing message.
func Conflict(format string, args ...any) error {
	return &messageError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// Auth returns an ErrAuth carrying a client-facing message.
func Auth(format string, args ...any) error {
	return &messageError{kind: ErrAuth, msg: fmt.Sprintf(format, args...)}
}

// NotConfigured reports that a collaborator has no credentials.
func NotConfigured(service string) error {
	return &messageError{kind: ErrNotConfigured, msg: service + " is not configured"}
}

// Storage wraps a driver error. The driver text is kept for logs only.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.kind }

// UpstreamError is a failed call to a third-party API.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d", e.Provider, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return e.Provider + ": upstream error"
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
func (e *UpstreamError) Unwrap() error        { return e.Err }

// Temporary reports whether the failure is worth retrying later: transport
// errors, 429 and 5xx.
func (e *UpstreamError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Message returns the client-facing text of err, or fallback when err carries
// nothing safe to show.
func Message(err error, fallback string) string {
	var me *messageError
	if errors.As(err, &me) {
		return me.msg
	}
	return fallback
}

// Status maps an error to the HTTP status the api layer responds with.
func Status(err error) int {
	var up *UpstreamError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &up):
		if up.Temporary() {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrStorage):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
