package ratelimit

import (
	"sync"
	"time"
)

// Result reports a single rate limit decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is the epoch second (ceiling) at which the client's current
	// window expires.
	Reset int64
}

type entry struct {
	count       int
	windowStart time.Time
}

// Limiter enforces a fixed-window request ceiling per client identity.
// Windows do not slide: a client can burst up to twice the limit across a
// window boundary, which is an accepted trade for O(1) state per client.
type Limiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	entries   map[string]*entry
	lastSweep time.Time

	now func() time.Time
}

// New creates a limiter allowing max requests per window for each identity.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Check records a request attempt for identity and reports whether it is
// allowed. Rejected attempts do not consume budget, so polling while blocked
// carries no penalty.
func (l *Limiter) Check(identity string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	e, ok := l.entries[identity]
	if !ok || now.Sub(e.windowStart) > l.window {
		l.entries[identity] = &entry{count: 1, windowStart: now}
		return Result{Allowed: true, Limit: l.max, Remaining: l.max - 1, Reset: l.resetAt(now)}
	}

	if e.count >= l.max {
		return Result{Allowed: false, Limit: l.max, Remaining: 0, Reset: l.resetAt(e.windowStart)}
	}

	e.count++
	return Result{Allowed: true, Limit: l.max, Remaining: l.max - e.count, Reset: l.resetAt(e.windowStart)}
}

// sweepLocked drops entries whose window has expired, at most once per
// window duration so steady traffic does not pay the full-map scan on
// every request.
func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for identity, e := range l.entries {
		if now.Sub(e.windowStart) > l.window {
			delete(l.entries, identity)
		}
	}
}

func (l *Limiter) resetAt(windowStart time.Time) int64 {
	deadline := windowStart.Add(l.window)
	sec := deadline.Unix()
	if deadline.After(time.Unix(sec, 0)) {
		sec++
	}
	return sec
}
