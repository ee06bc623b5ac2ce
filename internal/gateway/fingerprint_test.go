package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFingerprint_StablePerClient(t *testing.T) {
	t.Parallel()

	r1 := httptest.NewRequest(http.MethodGet, "/", nil)
	r1.RemoteAddr = "10.0.0.1:1111"
	r1.Header.Set("User-Agent", "curl/8.0")

	r2 := httptest.NewRequest(http.MethodGet, "/other/path", nil)
	r2.RemoteAddr = "10.0.0.1:2222" // same host, different ephemeral port
	r2.Header.Set("User-Agent", "curl/8.0")

	if Fingerprint(r1, false) != Fingerprint(r2, false) {
		t.Error("fingerprint should be stable across ports and paths")
	}
}

func TestFingerprint_DistinguishesClients(t *testing.T) {
	t.Parallel()

	base := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:1111"
		r.Header.Set("User-Agent", "curl/8.0")
		return r
	}

	byIP := base()
	byIP.RemoteAddr = "10.0.0.2:1111"

	byUA := base()
	byUA.Header.Set("User-Agent", "Mozilla/5.0")

	fp := Fingerprint(base(), false)
	if Fingerprint(byIP, false) == fp {
		t.Error("different IPs must produce different fingerprints")
	}
	if Fingerprint(byUA, false) == fp {
		t.Error("different user agents must produce different fingerprints")
	}
}

func TestFingerprint_NotReversible(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:4242"

	fp := Fingerprint(r, false)
	if len(fp) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(fp))
	}
	// The raw address must not appear in the derived key.
	if fp == r.RemoteAddr {
		t.Error("fingerprint must not be the raw address")
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		xRealIP    string
		xff        string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.7:5000",
			want:       "192.0.2.7",
		},
		{
			name:       "headers ignored when proxy untrusted",
			remoteAddr: "192.0.2.7:5000",
			xRealIP:    "198.51.100.1",
			xff:        "198.51.100.2",
			want:       "192.0.2.7",
		},
		{
			name:       "x-real-ip preferred when trusted",
			trustProxy: true,
			remoteAddr: "192.0.2.7:5000",
			xRealIP:    "198.51.100.1",
			xff:        "198.51.100.2",
			want:       "198.51.100.1",
		},
		{
			name:       "first forwarded hop when trusted",
			trustProxy: true,
			remoteAddr: "192.0.2.7:5000",
			xff:        "198.51.100.2, 10.0.0.1",
			want:       "198.51.100.2",
		},
		{
			name:       "non-IP header value rejected",
			trustProxy: true,
			remoteAddr: "192.0.2.7:5000",
			xRealIP:    "evil-string",
			want:       "192.0.2.7",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xRealIP != "" {
				r.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}

			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
