package provider

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAllowExhaustsTokens(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(3, time.Hour)
	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Fatalf("token %d should be available", i+1)
		}
	}
	if limiter.Allow() {
		t.Fatal("bucket should be empty")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(1, 10*time.Millisecond)
	if !limiter.Allow() {
		t.Fatal("first token should be available")
	}
	if limiter.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(15 * time.Millisecond)
	if !limiter.Allow() {
		t.Fatal("bucket should have refilled")
	}
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(1, time.Hour)
	limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}
