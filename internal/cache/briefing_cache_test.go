package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"whats-up/internal/domain"
)

type durableStub struct {
	entry   *domain.CachedBriefing
	loadErr error
	saveErr error
	loads   int
	saves   int
}

func (s *durableStub) Load(ctx context.Context) (*domain.CachedBriefing, error) {
	s.loads++
	return s.entry, s.loadErr
}

func (s *durableStub) Save(ctx context.Context, entry domain.CachedBriefing) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entry = &entry
	return nil
}

func testBriefing() domain.Briefing {
	return domain.Briefing{
		Bullets:    []domain.BulletPoint{{Main: "BTC held support."}},
		Conclusion: "Steady.",
		Sentiment:  domain.SentimentNeutral,
	}
}

func TestPutThenGetServesFromMemory(t *testing.T) {
	t.Parallel()

	durable := &durableStub{}
	c := New(durable, 24*time.Hour)

	entry := c.Put(context.Background(), testBriefing())
	if !entry.ExpiresAt.Equal(entry.Timestamp.Add(24 * time.Hour)) {
		t.Errorf("expiry must be timestamp+ttl, got %s / %s", entry.Timestamp, entry.ExpiresAt)
	}

	got := c.Get(context.Background())
	if got == nil {
		t.Fatal("expected a cache hit")
	}
	if durable.loads != 0 {
		t.Errorf("memory hit must not touch the durable tier, loads=%d", durable.loads)
	}
	if durable.saves != 1 {
		t.Errorf("put must write through, saves=%d", durable.saves)
	}
}

func TestExpiryBoundary(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	now := base
	c := New(nil, 24*time.Hour)
	c.now = func() time.Time { return now }

	c.Put(context.Background(), testBriefing())

	now = base.Add(24*time.Hour - time.Millisecond)
	if c.Get(context.Background()) == nil {
		t.Fatal("entry must still be valid just before expiry")
	}

	now = base.Add(24*time.Hour + time.Millisecond)
	if c.Get(context.Background()) != nil {
		t.Fatal("entry must be absent just after expiry")
	}
}

func TestColdStartPromotesDurableEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	durable := &durableStub{entry: &domain.CachedBriefing{
		Data:      testBriefing(),
		Timestamp: now.Add(-time.Hour),
		ExpiresAt: now.Add(23 * time.Hour),
	}}
	c := New(durable, 24*time.Hour)
	c.now = func() time.Time { return now }

	if c.Get(context.Background()) == nil {
		t.Fatal("expected the durable entry to serve a cold start")
	}
	if c.Get(context.Background()) == nil {
		t.Fatal("expected a hit after promotion")
	}
	if durable.loads != 1 {
		t.Errorf("second read must hit memory, loads=%d", durable.loads)
	}
}

func TestExpiredDurableEntryIsAbsent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	durable := &durableStub{entry: &domain.CachedBriefing{
		Data:      testBriefing(),
		Timestamp: now.Add(-25 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}}
	c := New(durable, 24*time.Hour)
	c.now = func() time.Time { return now }

	if c.Get(context.Background()) != nil {
		t.Fatal("expired durable entry must read as absent")
	}
}

func TestDurableFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	durable := &durableStub{loadErr: errors.New("disk gone"), saveErr: errors.New("disk gone")}
	c := New(durable, 24*time.Hour)

	// Save failure must not prevent the memory tier from serving.
	c.Put(context.Background(), testBriefing())
	if c.Get(context.Background()) == nil {
		t.Fatal("memory tier must serve despite a durable write failure")
	}

	// Load failure on a cold cache reads as a miss, not a panic.
	cold := New(durable, 24*time.Hour)
	if cold.Get(context.Background()) != nil {
		t.Fatal("durable read failure must read as a miss")
	}
}

func TestAge(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{30 * time.Hour, "30h ago"},
		{72 * time.Hour, "3d ago"},
	}
	for _, tc := range cases {
		entry := domain.CachedBriefing{Timestamp: now.Add(-tc.ago)}
		if got := Age(entry, now); got != tc.want {
			t.Errorf("Age(%s) = %q, want %q", tc.ago, got, tc.want)
		}
	}
}
