package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"whats-up/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	xSearchBaseURL = "https://api.x.com/2"

	perQueryTimeout = 5 * time.Second
	evidenceWindow  = 48 * time.Hour
	minPostTextLen  = 30
	maxRankedPosts  = 15
	maxPostTextLen  = 280
	searchPageSize  = 25
)

// XSearchProvider fetches real posts from the curated account set, to
// ground-truth-check the intelligence provider's claims.
type XSearchProvider struct {
	client  *http.Client
	baseURL string
	bearer  string
	tracer  trace.Tracer
	now     func() time.Time
}

func NewXSearchProvider(tracer trace.Tracer, bearerToken string) *XSearchProvider {
	return &XSearchProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: xSearchBaseURL,
		bearer:  strings.TrimSpace(bearerToken),
		tracer:  tracer,
		now:     time.Now,
	}
}

// FetchRankedPosts runs one search per curated account group concurrently,
// keeps whatever succeeded, and ranks the merged results. Evidence is
// enrichment: a missing token or a fully failed batch yields an empty list.
func (p *XSearchProvider) FetchRankedPosts(ctx context.Context) []domain.RankedSocialPost {
	_, span := p.tracer.Start(ctx, "xsearch.fetch-ranked-posts")
	defer span.End()

	if p.bearer == "" {
		return nil
	}

	type result struct {
		posts []domain.RankedSocialPost
		err   error
	}
	results := make(chan result, len(curatedAccountGroups))

	for _, group := range curatedAccountGroups {
		group := group
		go func() {
			qctx, cancel := context.WithTimeout(ctx, perQueryTimeout)
			defer cancel()
			posts, err := p.searchGroup(qctx, group)
			results <- result{posts: posts, err: err}
		}()
	}

	var merged []domain.RankedSocialPost
	for range curatedAccountGroups {
		r := <-results
		if r.err != nil {
			log.Printf("evidence query failed: %v", r.err)
			continue
		}
		merged = append(merged, r.posts...)
	}

	return p.rank(merged)
}

// rank is the post-processing pipeline: dedupe by id, filter by length and
// recency, score, sort descending, cap, truncate text for prompt-size control.
func (p *XSearchProvider) rank(posts []domain.RankedSocialPost) []domain.RankedSocialPost {
	cutoff := p.now().Add(-evidenceWindow)

	seen := make(map[string]bool, len(posts))
	kept := make([]domain.RankedSocialPost, 0, len(posts))
	for _, post := range posts {
		if seen[post.ID] {
			continue
		}
		seen[post.ID] = true
		if len(post.Text) < minPostTextLen || post.PostedAt.Before(cutoff) {
			continue
		}
		post.Score = ScorePost(post.Likes, post.Reshares, post.Views, post.FollowerCount)
		kept = append(kept, post)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if len(kept) > maxRankedPosts {
		kept = kept[:maxRankedPosts]
	}
	for i := range kept {
		if len(kept[i].Text) > maxPostTextLen {
			kept[i].Text = kept[i].Text[:maxPostTextLen]
		}
	}
	return kept
}

// ScorePost weighs engagement on a log scale so one viral outlier cannot
// dominate, with a follower-tier bonus favoring established voices.
func ScorePost(likes, reshares, views, followers int64) float64 {
	score := math.Log(float64(likes)+1)*2 +
		math.Log(float64(reshares)+1)*1.5 +
		math.Log(float64(views)+1)*0.5
	switch {
	case followers >= 500_000:
		score += 3
	case followers >= 100_000:
		score += 2
	case followers >= 50_000:
		score += 1
	}
	return score
}

func (p *XSearchProvider) searchGroup(ctx context.Context, handles []string) ([]domain.RankedSocialPost, error) {
	clauses := make([]string, len(handles))
	for i, h := range handles {
		clauses[i] = "from:" + h
	}
	query := "(" + strings.Join(clauses, " OR ") + ") -is:retweet"

	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", fmt.Sprintf("%d", searchPageSize))
	params.Set("sort_order", "recency")
	params.Set("tweet.fields", "created_at,public_metrics")
	params.Set("expansions", "author_id")
	params.Set("user.fields", "name,username,public_metrics")

	u := p.baseURL + "/tweets/search/recent?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.bearer)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: "x-search", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.UpstreamError{Provider: "x-search", Status: resp.StatusCode, Message: truncate(string(body), 300)}
	}

	var payload struct {
		Data []struct {
			ID            string    `json:"id"`
			Text          string    `json:"text"`
			AuthorID      string    `json:"author_id"`
			CreatedAt     time.Time `json:"created_at"`
			PublicMetrics struct {
				LikeCount       int64 `json:"like_count"`
				RetweetCount    int64 `json:"retweet_count"`
				ImpressionCount int64 `json:"impression_count"`
			} `json:"public_metrics"`
		} `json:"data"`
		Includes struct {
			Users []struct {
				ID            string `json:"id"`
				Name          string `json:"name"`
				Username      string `json:"username"`
				PublicMetrics struct {
					FollowersCount int64 `json:"followers_count"`
				} `json:"public_metrics"`
			} `json:"users"`
		} `json:"includes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	type author struct {
		name      string
		username  string
		followers int64
	}
	authors := make(map[string]author, len(payload.Includes.Users))
	for _, u := range payload.Includes.Users {
		authors[u.ID] = author{name: u.Name, username: u.Username, followers: u.PublicMetrics.FollowersCount}
	}

	posts := make([]domain.RankedSocialPost, 0, len(payload.Data))
	for _, row := range payload.Data {
		a := authors[row.AuthorID]
		post := domain.RankedSocialPost{
			ID:            row.ID,
			Text:          strings.TrimSpace(row.Text),
			AuthorHandle:  a.username,
			AuthorName:    a.name,
			FollowerCount: a.followers,
			Likes:         row.PublicMetrics.LikeCount,
			Reshares:      row.PublicMetrics.RetweetCount,
			Views:         row.PublicMetrics.ImpressionCount,
			PostedAt:      row.CreatedAt.UTC(),
		}
		if a.username != "" {
			post.URL = fmt.Sprintf("https://x.com/%s/status/%s", a.username, row.ID)
		}
		posts = append(posts, post)
	}
	return posts, nil
}
