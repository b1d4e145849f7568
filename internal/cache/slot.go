package cache

import (
	"sync"
	"time"
)

// Slot memoizes a single computed value for a bounded time-to-live. One
// slot guards one operation; there is no keying. The stored value is never
// mutated after Fetch stores it, only replaced wholesale on expiry.
type Slot struct {
	mu       sync.Mutex
	ttl      time.Duration
	value    any
	storedAt time.Time

	now func() time.Time
}

// NewSlot creates an empty slot with the given TTL.
func NewSlot(ttl time.Duration) *Slot {
	return &Slot{ttl: ttl, now: time.Now}
}

// Fetch returns the cached value while it is fresh, reporting a hit.
// Otherwise it invokes compute, stores the result with the current
// timestamp and returns it, reporting a miss. compute runs under the slot
// lock so concurrent misses do not race to recompute.
func (s *Slot) Fetch(compute func() any) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.storedAt.IsZero() && now.Sub(s.storedAt) <= s.ttl {
		return s.value, true
	}

	s.value = compute()
	s.storedAt = now
	return s.value, false
}
