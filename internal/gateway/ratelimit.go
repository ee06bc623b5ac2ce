package gateway

import (
	"sync"
	"time"
)

// sweepFactor controls inline cleanup: entries whose window started more than
// sweepFactor windows ago are stale and removed during Allow calls.
const sweepFactor = 2

// windowState tracks one client's position in the current fixed window.
type windowState struct {
	count       int
	windowStart time.Time
}

// RateLimiter is a fixed-window request counter keyed by client fingerprint.
//
// Fixed windows are intentionally approximate (a burst can straddle the
// boundary) in exchange for O(1) memory per client. A single mutex guards the
// map; per-request work inside the critical section is a map lookup and an
// increment, so sharding is not worth the complexity at the loads this
// gateway targets.
type RateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*windowState
	maxRequests int
	window      time.Duration
	lastSweep   time.Time

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewRateLimiter creates a fixed-window limiter allowing maxRequests per
// window per fingerprint.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients:     make(map[string]*windowState),
		maxRequests: maxRequests,
		window:      window,
		lastSweep:   time.Now(),
		now:         time.Now,
	}
}

// Allow records a request for the fingerprint and reports whether it is
// within the window budget. State is created lazily on first sight.
func (rl *RateLimiter) Allow(fingerprint string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepLocked(now)

	st, ok := rl.clients[fingerprint]
	if !ok {
		st = &windowState{windowStart: now}
		rl.clients[fingerprint] = st
	}

	if now.Sub(st.windowStart) > rl.window {
		st.count = 0
		st.windowStart = now
	}

	st.count++
	return st.count <= rl.maxRequests
}

// TimeUntilReset reports how long until the fingerprint's current window
// expires. Returns 0 for unknown fingerprints or already-expired windows.
func (rl *RateLimiter) TimeUntilReset(fingerprint string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	st, ok := rl.clients[fingerprint]
	if !ok {
		return 0
	}

	remaining := rl.window - rl.now().Sub(st.windowStart)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// sweepLocked drops clients whose window expired long ago. Runs inline at
// most once per window so idle fingerprints do not accumulate forever.
// Caller must hold rl.mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	for k, st := range rl.clients {
		if now.Sub(st.windowStart) > sweepFactor*rl.window {
			delete(rl.clients, k)
		}
	}
	rl.lastSweep = now
}
