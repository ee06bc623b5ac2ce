package gateway

import "net/http"

// securityHeaders is the fixed header set applied unconditionally before any
// processing past the transport check, so the headers are present even on
// rate-limit, CSRF, and handler failures.
var securityHeaders = [...][2]string{
	{"Content-Security-Policy", "default-src 'self'; script-src 'self'; object-src 'none';"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Referrer-Policy", "no-referrer-when-downgrade"},
	{"Cache-Control", "no-store"},
	{"Pragma", "no-cache"},
}

func applySecurityHeaders(h http.Header) {
	for _, kv := range securityHeaders {
		h.Set(kv[0], kv[1])
	}
}
