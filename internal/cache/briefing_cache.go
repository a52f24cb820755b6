package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"whats-up/internal/domain"
)

// DurableStore is the slow tier backing the in-process slot across restarts.
// Load returns (nil, nil) when no entry exists.
type DurableStore interface {
	Load(ctx context.Context) (*domain.CachedBriefing, error)
	Save(ctx context.Context, entry domain.CachedBriefing) error
}

// BriefingCache is a two-tier single-slot cache: a memory slot for warm
// processes, a durable slot for cold starts. Last writer wins.
type BriefingCache struct {
	mu      sync.RWMutex
	mem     *domain.CachedBriefing
	durable DurableStore
	ttl     time.Duration
	now     func() time.Time
}

func New(durable DurableStore, ttl time.Duration) *BriefingCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BriefingCache{
		durable: durable,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the current entry if still valid, checking memory first and
// promoting a valid durable entry into memory. Expired entries are treated
// as absent (nil) but not eagerly deleted; the next Put overwrites them.
func (c *BriefingCache) Get(ctx context.Context) *domain.CachedBriefing {
	now := c.now()

	c.mu.RLock()
	mem := c.mem
	c.mu.RUnlock()
	if mem != nil && mem.Valid(now) {
		return mem
	}

	if c.durable == nil {
		return nil
	}
	entry, err := c.durable.Load(ctx)
	if err != nil {
		log.Printf("durable cache read failed: %v", err)
		return nil
	}
	if entry == nil || !entry.Valid(now) {
		return nil
	}

	c.mu.Lock()
	c.mem = entry
	c.mu.Unlock()
	return entry
}

// Put stores a fresh briefing in both tiers. The TTL is fixed at write time,
// never slid by reads. A durable-write failure is logged and swallowed: the
// memory tier still serves correctly within this process.
func (c *BriefingCache) Put(ctx context.Context, b domain.Briefing) domain.CachedBriefing {
	now := c.now()
	entry := domain.CachedBriefing{
		Data:      b,
		Timestamp: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.mem = &entry
	c.mu.Unlock()

	if c.durable != nil {
		if err := c.durable.Save(ctx, entry); err != nil {
			log.Printf("durable cache write failed: %v", err)
		}
	}
	return entry
}

// Age humanizes how long ago an entry was generated, for display.
func Age(entry domain.CachedBriefing, now time.Time) string {
	d := now.Sub(entry.Timestamp)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
