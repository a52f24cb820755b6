// Package governor holds the cost-control gates: per-client rate limiting,
// force-refresh cooldown, and the global daily synthesis budget. All state
// is in-memory; a restart resets every counter, a deliberate bias toward
// availability over strict enforcement.
package governor

import (
	"sync"
	"time"

	"whats-up/internal/domain"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// ClientRateLimiter is a fixed-window counter keyed by client identifier.
// Windows start lazily on the first request after the prior window elapsed.
type ClientRateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	cap     int
	entries map[string]*rateWindow
	now     func() time.Time
}

func NewClientRateLimiter(cap int, window time.Duration) *ClientRateLimiter {
	if cap <= 0 {
		cap = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &ClientRateLimiter{
		window:  window,
		cap:     cap,
		entries: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Allow admits the request or returns a RateLimitedError with the time
// until the client's window resets.
func (l *ClientRateLimiter) Allow(client string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry := l.entries[client]
	if entry == nil || !now.Before(entry.resetAt) {
		l.entries[client] = &rateWindow{count: 1, resetAt: now.Add(l.window)}
		return nil
	}
	if entry.count >= l.cap {
		return &domain.RateLimitedError{RetryAfter: entry.resetAt.Sub(now)}
	}
	entry.count++
	return nil
}
