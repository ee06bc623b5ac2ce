package gateway

import (
	"net/http"
)

// Default lookup locations for the request-side CSRF token.
const (
	DefaultCSRFHeader = "X-CSRF-Token"
	DefaultCSRFField  = "csrf_token"
	DefaultCSRFQuery  = "csrf_token"
)

// TokenSource supplies the expected CSRF token for a request. Session
// storage lives outside the gateway; the host binds whatever session or
// token scheme it uses through this interface.
type TokenSource interface {
	// ExpectedToken returns the session-scoped token the request must
	// present, and whether one exists.
	ExpectedToken(r *http.Request) (string, bool)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(r *http.Request) (string, bool)

// ExpectedToken implements TokenSource.
func (f TokenSourceFunc) ExpectedToken(r *http.Request) (string, bool) {
	return f(r)
}

// CSRFValidator checks the request token against the session-scoped expected
// token for unsafe HTTP methods.
type CSRFValidator struct {
	header string
	field  string
	query  string
	tokens TokenSource
}

// NewCSRFValidator creates a validator. Empty lookup names fall back to the
// defaults.
func NewCSRFValidator(header, field, query string, tokens TokenSource) *CSRFValidator {
	if header == "" {
		header = DefaultCSRFHeader
	}
	if field == "" {
		field = DefaultCSRFField
	}
	if query == "" {
		query = DefaultCSRFQuery
	}
	return &CSRFValidator{header: header, field: field, query: query, tokens: tokens}
}

// Check validates the request. Safe methods always pass. For unsafe methods
// a missing token on either side, or a mismatch, fails with 403.
//
// The comparison is a plain equality check: CSRF tokens are random values,
// not secrets derived from passwords, so a timing side channel yields
// nothing useful.
func (v *CSRFValidator) Check(r *http.Request) error {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return nil
	}

	expected, ok := v.tokens.ExpectedToken(r)
	if !ok || expected == "" {
		return NewValidationError("csrf_required", "CSRF validation failed: no session token", http.StatusForbidden)
	}

	token := v.requestToken(r)
	if token == "" {
		return NewValidationError("csrf_required", "CSRF validation failed: missing token", http.StatusForbidden)
	}

	if token != expected {
		return NewValidationError("csrf_invalid", "CSRF validation failed", http.StatusForbidden)
	}

	return nil
}

// requestToken extracts the client-supplied token, in priority order:
// dedicated header, request body field, query parameter.
func (v *CSRFValidator) requestToken(r *http.Request) string {
	if t := r.Header.Get(v.header); t != "" {
		return t
	}
	if t := r.PostFormValue(v.field); t != "" {
		return t
	}
	return r.URL.Query().Get(v.query)
}
