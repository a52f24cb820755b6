package provider

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"whats-up/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestFetchRankedPostsWithoutToken(t *testing.T) {
	t.Parallel()

	p := NewXSearchProvider(trace.NewNoopTracerProvider().Tracer("test"), "")
	if posts := p.FetchRankedPosts(context.Background()); posts != nil {
		t.Fatalf("expected nil without a bearer token, got %d posts", len(posts))
	}
}

func TestScorePost(t *testing.T) {
	t.Parallel()

	got := ScorePost(100, 20, 5000, 0)
	want := math.Log(101)*2 + math.Log(21)*1.5 + math.Log(5001)*0.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}

	// Crossing the 50k follower tier is worth exactly one point.
	below := ScorePost(10, 1, 100, 40_000)
	above := ScorePost(10, 1, 100, 60_000)
	if math.Abs((above-below)-1.0) > 1e-9 {
		t.Errorf("expected +1 tier bonus, got delta %f", above-below)
	}

	if delta := ScorePost(0, 0, 0, 600_000) - ScorePost(0, 0, 0, 0); delta != 3 {
		t.Errorf("expected +3 for 500k followers, got %f", delta)
	}
	if delta := ScorePost(0, 0, 0, 150_000) - ScorePost(0, 0, 0, 0); delta != 2 {
		t.Errorf("expected +2 for 100k followers, got %f", delta)
	}
}

func TestRankPipeline(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := NewXSearchProvider(trace.NewNoopTracerProvider().Tracer("test"), "token")
	p.now = func() time.Time { return now }

	longText := strings.Repeat("BTC analysis thread, funding and flows. ", 10)
	posts := []domain.RankedSocialPost{
		{ID: "1", Text: longText, Likes: 10, PostedAt: now.Add(-time.Hour)},
		{ID: "1", Text: longText, Likes: 10, PostedAt: now.Add(-time.Hour)}, // duplicate
		{ID: "2", Text: "too short", Likes: 9999, PostedAt: now.Add(-time.Hour)},
		{ID: "3", Text: longText, Likes: 5000, PostedAt: now.Add(-72 * time.Hour)}, // stale
		{ID: "4", Text: longText, Likes: 500, PostedAt: now.Add(-time.Hour)},
	}

	ranked := p.rank(posts)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(ranked))
	}
	if ranked[0].ID != "4" || ranked[1].ID != "1" {
		t.Errorf("expected score-descending order 4,1 got %s,%s", ranked[0].ID, ranked[1].ID)
	}
	for _, post := range ranked {
		if len(post.Text) > maxPostTextLen {
			t.Errorf("post %s text not truncated: %d chars", post.ID, len(post.Text))
		}
	}
}

func TestRankCapsAtFifteen(t *testing.T) {
	t.Parallel()

	now := time.Now()
	p := NewXSearchProvider(trace.NewNoopTracerProvider().Tracer("test"), "token")

	text := strings.Repeat("market structure note ", 5)
	var posts []domain.RankedSocialPost
	for i := 0; i < 40; i++ {
		posts = append(posts, domain.RankedSocialPost{
			ID:       fmt.Sprintf("p%d", i),
			Text:     text,
			Likes:    int64(i),
			PostedAt: now.Add(-time.Hour),
		})
	}

	ranked := p.rank(posts)
	if len(ranked) != maxRankedPosts {
		t.Fatalf("expected %d posts, got %d", maxRankedPosts, len(ranked))
	}
	if ranked[0].ID != "p39" {
		t.Errorf("expected highest-engagement post first, got %s", ranked[0].ID)
	}
}

func TestFetchRankedPostsPartialFailure(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	text := strings.Repeat("ETH staking flows keep climbing. ", 3)

	var calls int32
	p := NewXSearchProvider(trace.NewNoopTracerProvider().Tracer("test"), "token")
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if auth := req.Header.Get("Authorization"); auth != "Bearer token" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		query := req.URL.Query().Get("query")
		if !strings.HasPrefix(query, "(from:") || !strings.Contains(query, "-is:retweet") {
			t.Errorf("unexpected query shape: %s", query)
		}

		// First group's query fails; the rest succeed.
		if atomic.AddInt32(&calls, 1) == 1 {
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(strings.NewReader("upstream sad")),
				Header:     make(http.Header),
			}, nil
		}

		n := atomic.LoadInt32(&calls)
		payload := map[string]any{
			"data": []map[string]any{{
				"id":         fmt.Sprintf("1000%d", n),
				"text":       text,
				"author_id":  "42",
				"created_at": now.Add(-time.Hour).Format(time.RFC3339),
				"public_metrics": map[string]int64{
					"like_count":       250,
					"retweet_count":    40,
					"impression_count": 90000,
				},
			}},
			"includes": map[string]any{
				"users": []map[string]any{{
					"id":       "42",
					"name":     "Data Desk",
					"username": "datadesk",
					"public_metrics": map[string]int64{
						"followers_count": 120000,
					},
				}},
			},
		}
		return jsonResponse(http.StatusOK, payload), nil
	})}

	posts := p.FetchRankedPosts(context.Background())
	if len(posts) != len(curatedAccountGroups)-1 {
		t.Fatalf("expected %d posts from surviving groups, got %d", len(curatedAccountGroups)-1, len(posts))
	}
	first := posts[0]
	if first.AuthorHandle != "datadesk" || first.FollowerCount != 120000 {
		t.Errorf("author not joined from includes: %+v", first)
	}
	if !strings.HasPrefix(first.URL, "https://x.com/datadesk/status/") {
		t.Errorf("unexpected post URL: %s", first.URL)
	}
	if first.Score == 0 {
		t.Error("expected a non-zero score")
	}
}
