package governor

import (
	"crypto/subtle"
	"sync"
	"time"

	"whats-up/internal/domain"
)

// RefreshCooldown throttles force-refresh requests per client. A client may
// trigger one forced synthesis per cooldown period; presenting the configured
// admin token bypasses the gate entirely. An empty configured token disables
// the bypass rather than granting it to everyone.
type RefreshCooldown struct {
	mu         sync.Mutex
	period     time.Duration
	adminToken string
	lastForce  map[string]time.Time
	now        func() time.Time
}

func NewRefreshCooldown(period time.Duration, adminToken string) *RefreshCooldown {
	if period <= 0 {
		period = 10 * time.Minute
	}
	return &RefreshCooldown{
		period:     period,
		adminToken: adminToken,
		lastForce:  make(map[string]time.Time),
		now:        time.Now,
	}
}

// Allow admits the forced refresh or returns a CooldownError with the time
// remaining. A token that does not match the configured one is ignored and
// the caller is treated as a normal client.
func (c *RefreshCooldown) Allow(client, token string) error {
	if c.isAdmin(token) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.lastForce[client]; ok {
		if remaining := c.period - now.Sub(last); remaining > 0 {
			return &domain.CooldownError{RetryAfter: remaining}
		}
	}
	c.lastForce[client] = now
	return nil
}

func (c *RefreshCooldown) isAdmin(token string) bool {
	if c.adminToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.adminToken)) == 1
}
