package domain

import "time"

type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

func (s Sentiment) IsValid() bool {
	return s == SentimentBullish || s == SentimentBearish || s == SentimentNeutral
}

// CoinSnapshot is one coin's market state at fetch time. Immutable once built.
type CoinSnapshot struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	PriceUSD      float64 `json:"price_usd"`
	Change24hPct  float64 `json:"change_24h_pct"`
	Change7dPct   float64 `json:"change_7d_pct"`
	MarketCapRank int     `json:"market_cap_rank"`
}

// TopMoversTier holds the gainers/losers derived from one coin universe size.
// Gainers are sorted descending by 24h change, losers worst-first.
type TopMoversTier struct {
	Size    int            `json:"size"`
	Gainers []CoinSnapshot `json:"gainers"`
	Losers  []CoinSnapshot `json:"losers"`
}

// SourcedClaim is the atomic unit of evidence: an assertion plus an optional
// citation URL. An empty SourceURL means no credible citation existed.
type SourcedClaim struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url,omitempty"`
}

// ThemeInsight is a named market narrative produced by the intelligence
// provider, e.g. "REGULATORY" or "ETF_FLOWS".
type ThemeInsight struct {
	Theme       string         `json:"theme"`
	Insight     string         `json:"insight"`
	Claims      []SourcedClaim `json:"claims,omitempty"`
	Implication Sentiment      `json:"implication"`
}

// SocialIntelligence is the Social Intelligence Adapter's result. The zero
// value is the documented degraded form and always safe to consume.
type SocialIntelligence struct {
	Themes       []ThemeInsight `json:"themes,omitempty"`
	PriceDrivers []SourcedClaim `json:"price_drivers,omitempty"`
	BreakingNews []SourcedClaim `json:"breaking_news,omitempty"`
	Sentiment    string         `json:"sentiment,omitempty"`
}

func (si SocialIntelligence) IsEmpty() bool {
	return len(si.Themes) == 0 && len(si.PriceDrivers) == 0 && len(si.BreakingNews) == 0
}

// RankedSocialPost is a real social post with engagement metrics and a
// computed relevance score. Transient: never persisted.
type RankedSocialPost struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	AuthorHandle  string    `json:"author_handle"`
	AuthorName    string    `json:"author_name"`
	FollowerCount int64     `json:"follower_count"`
	Likes         int64     `json:"likes"`
	Reshares      int64     `json:"reshares"`
	Views         int64     `json:"views"`
	Score         float64   `json:"score"`
	URL           string    `json:"url"`
	PostedAt      time.Time `json:"posted_at"`
}

// SubPoint is a supporting claim under a briefing bullet.
type SubPoint = SourcedClaim

// BulletPoint is the display unit of the briefing: a main claim and zero or
// more supporting sub-points.
type BulletPoint struct {
	Main      string     `json:"main"`
	SourceURL string     `json:"source_url,omitempty"`
	SubPoints []SubPoint `json:"sub_points,omitempty"`
}

// Briefing is the synthesized market summary. Read-only after creation; a new
// synthesis supersedes rather than mutates it.
type Briefing struct {
	Bullets     []BulletPoint         `json:"bullets"`
	Conclusion  string                `json:"conclusion"`
	Sentiment   Sentiment             `json:"sentiment"`
	TopMovers   map[int]TopMoversTier `json:"top_movers,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// CachedBriefing wraps a briefing with its freshness window.
// Invariant: ExpiresAt = Timestamp + TTL.
type CachedBriefing struct {
	Data      Briefing  `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the entry is still servable at the given instant.
// The boundary itself counts as expired.
func (c CachedBriefing) Valid(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
