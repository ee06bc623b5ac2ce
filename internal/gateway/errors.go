package gateway

import (
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a gateway error. The response-formatting boundary switches
// exhaustively on it, so every kind maps to exactly one status family.
type Kind int

const (
	// KindValidation covers request-level failures: bad transport, missing
	// or mismatched CSRF tokens, rate limiting, rejected input. Maps to 4xx.
	KindValidation Kind = iota

	// KindSecurityViolation covers policy breaches. Maps to 403.
	KindSecurityViolation

	// KindConfig covers misconfiguration detected at runtime. Maps to 500.
	KindConfig

	// KindInternal covers unclassified handler errors and panics. Maps to 500.
	KindInternal
)

// Error is the tagged error variant used throughout the gateway. Stage
// failures are converted into an *Error locally and never rethrown past the
// wrapper.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Status    int
	Component string

	// RetryAfter is set on rate-limit errors and surfaces as the
	// Retry-After response header.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError builds a KindValidation error with the given 4xx status.
func NewValidationError(code, message string, status int) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Status: status}
}

// NewSecurityViolation builds a KindSecurityViolation error (403).
func NewSecurityViolation(code, message string) *Error {
	return &Error{Kind: KindSecurityViolation, Code: code, Message: message, Status: http.StatusForbidden}
}

// NewConfigError builds a KindConfig error (500). Construction-time
// misconfiguration is returned to the caller directly instead; this form is
// for config problems that only surface per request.
func NewConfigError(code, message string) *Error {
	return &Error{Kind: KindConfig, Code: code, Message: message, Status: http.StatusInternalServerError}
}

// classify converts an arbitrary handler error into an *Error. Already
// classified errors pass through; anything else becomes KindInternal. In
// strict mode the original error text is replaced with a generic message so
// internals never leak to clients.
func classify(err error, strict bool) *Error {
	if gerr, ok := err.(*Error); ok { //nolint:errorlint // handler contract returns *Error directly
		return gerr
	}

	message := err.Error()
	if strict {
		message = "internal server error"
	}
	return &Error{
		Kind:    KindInternal,
		Code:    "internal_error",
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}
