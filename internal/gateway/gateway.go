// Package gateway wraps request handlers with an ordered defensive pipeline:
// transport enforcement, security headers, fixed-window rate limiting, CSRF
// validation, and an overridable input-validation hook.
//
// The pipeline runs sequentially per request and short-circuits on the first
// failing stage, converting the failure into a fixed JSON error envelope.
// Many requests run the pipeline concurrently; the only cross-request shared
// state is the rate limiter's map, which synchronizes internally.
//
// Two integration styles are supported: Secure wraps an error-returning
// handler, Middleware exposes the same gate for "call next on success"
// chains.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wardensec/warden/internal/log"
)

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = time.Minute
)

// Sentinel construction errors. Misconfiguration is fatal at startup, not at
// request time.
var (
	ErrTokenSourceRequired = errors.New("gateway: CSRF token source is required")
	ErrInvalidRateLimit    = errors.New("gateway: rate limit requests must be positive")
	ErrInvalidWindow       = errors.New("gateway: rate limit window must be positive")
)

// Handler is an error-returning HTTP handler. A returned error is classified
// and rendered as the gateway's error envelope; it never propagates past the
// wrapper.
type Handler func(w http.ResponseWriter, r *http.Request) error

// Options configures a Gateway.
type Options struct {
	// RequireHTTPS rejects non-TLS requests with 400.
	RequireHTTPS bool

	// TrustProxy enables X-Forwarded-* / X-Real-IP handling for client
	// address and transport detection. Leave false unless an upstream
	// proxy is explicitly trusted.
	TrustProxy bool

	// StrictMode masks unclassified error messages and panic values in
	// responses. Enable in production.
	StrictMode bool

	// RateLimitRequests is the per-fingerprint budget per window.
	// Default 100.
	RateLimitRequests int

	// RateLimitWindow is the fixed window duration. Default 1 minute.
	RateLimitWindow time.Duration

	// CSRFHeader, CSRFField and CSRFQuery override the token lookup
	// locations. Empty values use the defaults.
	CSRFHeader string
	CSRFField  string
	CSRFQuery  string

	// Tokens supplies the expected CSRF token per request. Required.
	Tokens TokenSource

	// ValidateInput is an optional per-deployment extension point, run
	// after the CSRF stage and before the handler. A returned error
	// short-circuits the request.
	ValidateInput func(r *http.Request) error
}

// Gateway composes the defensive stages around request handlers.
type Gateway struct {
	opts    Options
	limiter *RateLimiter
	csrf    *CSRFValidator
	logger  log.Logger
}

// New creates a Gateway, validating options and failing fast on
// misconfiguration.
func New(opts Options, logger log.Logger) (*Gateway, error) {
	if opts.RateLimitRequests == 0 {
		opts.RateLimitRequests = DefaultRateLimitRequests
	}
	if opts.RateLimitWindow == 0 {
		opts.RateLimitWindow = DefaultRateLimitWindow
	}

	if opts.RateLimitRequests < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRateLimit, opts.RateLimitRequests)
	}
	if opts.RateLimitWindow < 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidWindow, opts.RateLimitWindow)
	}
	if opts.Tokens == nil {
		return nil, ErrTokenSourceRequired
	}

	if logger == nil {
		logger = log.NewNop()
	}

	return &Gateway{
		opts:    opts,
		limiter: NewRateLimiter(opts.RateLimitRequests, opts.RateLimitWindow),
		csrf:    NewCSRFValidator(opts.CSRFHeader, opts.CSRFField, opts.CSRFQuery, opts.Tokens),
		logger:  logger,
	}, nil
}

// RateLimiter exposes the gateway's limiter, mainly for tests and for hosts
// that report quota state elsewhere.
func (g *Gateway) RateLimiter() *RateLimiter {
	return g.limiter
}

// Secure wraps a handler with the full pipeline. Handler errors and panics
// are caught, classified, and rendered as the error envelope.
func (g *Gateway) Secure(h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer g.recoverPanic(w, r)

		if gerr := g.gate(w, r); gerr != nil {
			g.reject(w, r, gerr)
			return
		}

		if err := h(w, r); err != nil {
			gerr := classify(err, g.opts.StrictMode)
			if gerr.Kind == KindInternal {
				g.logger.Error("handler error",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			writeError(w, gerr, g.logger)
		}
	})
}

// SecureFunc is a convenience for wrapping plain http.HandlerFunc-shaped
// handlers that cannot fail.
func (g *Gateway) SecureFunc(h http.HandlerFunc) http.Handler {
	return g.Secure(func(w http.ResponseWriter, r *http.Request) error {
		h(w, r)
		return nil
	})
}

// Middleware exposes the gate as standard "call next on success" middleware,
// so the gateway composes with chain-style hosts. The handler-error
// conversion of Secure does not apply; next is a plain http.Handler.
func (g *Gateway) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer g.recoverPanic(w, r)

			if gerr := g.gate(w, r); gerr != nil {
				g.reject(w, r, gerr)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// gate runs the pre-handler stages in fixed order and returns the first
// failure. Security headers are applied before the rate-limit stage so they
// are present on every response past the transport check.
func (g *Gateway) gate(w http.ResponseWriter, r *http.Request) *Error {
	// 1. Transport enforcement.
	if g.opts.RequireHTTPS && !g.isSecure(r) {
		return NewValidationError("httpsRequired", "HTTPS is required", http.StatusBadRequest)
	}

	// 2. Security headers, unconditionally.
	applySecurityHeaders(w.Header())

	// 3. Rate limit.
	fp := Fingerprint(r, g.opts.TrustProxy)
	if !g.limiter.Allow(fp) {
		retry := g.limiter.TimeUntilReset(fp)
		gerr := NewValidationError("rate_limited",
			fmt.Sprintf("rate limit exceeded, retry after %s", retry.Round(time.Second)),
			http.StatusTooManyRequests)
		gerr.RetryAfter = retry
		return gerr
	}

	// 4. CSRF, unsafe methods only.
	if err := g.csrf.Check(r); err != nil {
		return classify(err, g.opts.StrictMode)
	}

	// 5. Input validation hook.
	if g.opts.ValidateInput != nil {
		if err := g.opts.ValidateInput(r); err != nil {
			return classify(err, g.opts.StrictMode)
		}
	}

	return nil
}

// isSecure reports whether the request arrived over TLS, honoring
// X-Forwarded-Proto only when the upstream proxy is trusted.
func (g *Gateway) isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if g.opts.TrustProxy && r.Header.Get("X-Forwarded-Proto") == "https" {
		return true
	}
	return false
}

// reject logs and renders a gate failure.
func (g *Gateway) reject(w http.ResponseWriter, r *http.Request, gerr *Error) {
	g.logger.Warn("request rejected",
		"code", gerr.Code,
		"status", gerr.Status,
		"path", r.URL.Path,
		"method", r.Method,
	)
	writeError(w, gerr, g.logger)
}

// recoverPanic converts a handler panic into a 500 envelope so a single
// request cannot crash the host process.
func (g *Gateway) recoverPanic(w http.ResponseWriter, r *http.Request) {
	if rec := recover(); rec != nil {
		g.logger.Error("panic recovered",
			"error", rec,
			"path", r.URL.Path,
			"method", r.Method,
		)

		message := fmt.Sprintf("panic: %v", rec)
		if g.opts.StrictMode {
			message = "internal server error"
		}
		writeError(w, &Error{
			Kind:    KindInternal,
			Code:    "internal_error",
			Message: message,
			Status:  http.StatusInternalServerError,
		}, g.logger)
	}
}
