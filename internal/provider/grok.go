package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"whats-up/internal/domain"
	"whats-up/internal/llmjson"

	"go.opentelemetry.io/otel/trace"
)

const (
	xaiBaseURL = "https://api.x.ai/v1"

	// Search grounding is pinned to the last 48 hours; anything older is
	// stale for a daily briefing.
	intelRecencyWindow = 48 * time.Hour

	maxSendAttempts  = 3
	statusOverloaded = 529
)

// GrokProvider queries the xAI chat API with live search grounding. It backs
// both the Social Intelligence Adapter and the long-form report generator.
type GrokProvider struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	tracer    trace.Tracer
	baseDelay time.Duration
	now       func() time.Time
}

func NewGrokProvider(tracer trace.Tracer, apiKey, model string) *GrokProvider {
	return &GrokProvider{
		client:    &http.Client{Timeout: 60 * time.Second},
		baseURL:   xaiBaseURL,
		apiKey:    strings.TrimSpace(apiKey),
		model:     model,
		tracer:    tracer,
		baseDelay: time.Second,
		now:       time.Now,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type searchSource struct {
	Type string `json:"type"`
}

type searchParameters struct {
	Mode             string         `json:"mode"`
	FromDate         string         `json:"from_date"`
	ToDate           string         `json:"to_date"`
	Sources          []searchSource `json:"sources,omitempty"`
	MaxSearchResults int            `json:"max_search_results,omitempty"`
}

type grokRequest struct {
	Model            string            `json:"model"`
	Messages         []chatMessage     `json:"messages"`
	MaxTokens        int               `json:"max_tokens,omitempty"`
	SearchParameters *searchParameters `json:"search_parameters,omitempty"`
}

type grokResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// FetchIntelligence runs one search-grounded call for themed market
// narratives. Intelligence is enrichment, not a hard dependency: a missing
// key, upstream failure, or unparseable reply degrades to the zero value.
func (p *GrokProvider) FetchIntelligence(ctx context.Context) domain.SocialIntelligence {
	_, span := p.tracer.Start(ctx, "grok.fetch-intelligence")
	defer span.End()

	if p.apiKey == "" {
		return domain.SocialIntelligence{}
	}

	intel, err := p.fetchIntelligence(ctx)
	if err != nil {
		log.Printf("social intelligence unavailable: %v", err)
		return domain.SocialIntelligence{}
	}
	return intel
}

func (p *GrokProvider) fetchIntelligence(ctx context.Context) (domain.SocialIntelligence, error) {
	to := p.now().UTC()
	from := to.Add(-intelRecencyWindow)

	req := grokRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: intelSystemPrompt},
			{Role: "user", Content: buildIntelUserPrompt(from, to)},
		},
		SearchParameters: &searchParameters{
			Mode:             "on",
			FromDate:         from.Format("2006-01-02"),
			ToDate:           to.Format("2006-01-02"),
			Sources:          []searchSource{{Type: "x"}, {Type: "news"}},
			MaxSearchResults: 25,
		},
	}

	body, status, err := p.post(ctx, req)
	if err != nil {
		return domain.SocialIntelligence{}, err
	}
	if status != http.StatusOK {
		return domain.SocialIntelligence{}, &domain.UpstreamError{Provider: "xai", Status: status, Message: truncate(string(body), 300)}
	}

	text, err := responseText(body)
	if err != nil {
		return domain.SocialIntelligence{}, err
	}

	raw, err := llmjson.ExtractObject(text)
	if err != nil {
		return domain.SocialIntelligence{}, &domain.MalformedResponseError{Provider: "xai", Reason: err.Error()}
	}

	var wire struct {
		Themes []struct {
			Theme       string `json:"theme"`
			Insight     string `json:"insight"`
			Implication string `json:"implication"`
			Claims      []struct {
				Text      string `json:"text"`
				SourceURL string `json:"sourceUrl"`
			} `json:"claims"`
		} `json:"themes"`
		PriceDrivers []struct {
			Text      string `json:"text"`
			SourceURL string `json:"sourceUrl"`
		} `json:"priceDrivers"`
		BreakingNews []struct {
			Text      string `json:"text"`
			SourceURL string `json:"sourceUrl"`
		} `json:"breakingNews"`
		Sentiment string `json:"sentiment"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.SocialIntelligence{}, &domain.MalformedResponseError{Provider: "xai", Reason: err.Error()}
	}

	intel := domain.SocialIntelligence{Sentiment: strings.TrimSpace(wire.Sentiment)}
	for _, t := range wire.Themes {
		theme := domain.ThemeInsight{
			Theme:       strings.TrimSpace(t.Theme),
			Insight:     strings.TrimSpace(t.Insight),
			Implication: normalizeImplication(t.Implication),
		}
		for _, c := range t.Claims {
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			theme.Claims = append(theme.Claims, domain.SourcedClaim{Text: strings.TrimSpace(c.Text), SourceURL: strings.TrimSpace(c.SourceURL)})
		}
		if theme.Theme != "" && theme.Insight != "" {
			intel.Themes = append(intel.Themes, theme)
		}
	}
	for _, c := range wire.PriceDrivers {
		if strings.TrimSpace(c.Text) != "" {
			intel.PriceDrivers = append(intel.PriceDrivers, domain.SourcedClaim{Text: strings.TrimSpace(c.Text), SourceURL: strings.TrimSpace(c.SourceURL)})
		}
	}
	for _, c := range wire.BreakingNews {
		if strings.TrimSpace(c.Text) != "" {
			intel.BreakingNews = append(intel.BreakingNews, domain.SourcedClaim{Text: strings.TrimSpace(c.Text), SourceURL: strings.TrimSpace(c.SourceURL)})
		}
	}
	return intel, nil
}

// GenerateReport produces a long-form market report. Unlike the briefing
// path this goes through the retrying transport: reports run minutes-scale
// and hitting a transient 429/529 mid-run is common.
func (p *GrokProvider) GenerateReport(ctx context.Context, coins []domain.CoinSnapshot) (string, error) {
	_, span := p.tracer.Start(ctx, "grok.generate-report")
	defer span.End()

	if p.apiKey == "" {
		return "", &domain.ConfigMissingError{Key: "XAI_API_KEY"}
	}

	to := p.now().UTC()
	from := to.Add(-intelRecencyWindow)

	req := grokRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: reportSystemPrompt},
			{Role: "user", Content: buildReportUserPrompt(coins, from, to)},
		},
		MaxTokens: 4000,
		SearchParameters: &searchParameters{
			Mode:             "on",
			FromDate:         from.Format("2006-01-02"),
			ToDate:           to.Format("2006-01-02"),
			Sources:          []searchSource{{Type: "x"}, {Type: "news"}},
			MaxSearchResults: 30,
		},
	}

	body, err := p.sendWithRetry(ctx, req)
	if err != nil {
		return "", err
	}
	return responseText(body)
}

// sendWithRetry retries only on 429 (rate limited) and 529 (overloaded) with
// exponential backoff; any other non-2xx returns immediately.
func (p *GrokProvider) sendWithRetry(ctx context.Context, req grokRequest) ([]byte, error) {
	for attempt := 0; attempt < maxSendAttempts; attempt++ {
		body, status, err := p.post(ctx, req)
		if err != nil {
			return nil, err
		}
		if status == http.StatusOK {
			return body, nil
		}
		if status != http.StatusTooManyRequests && status != statusOverloaded {
			return nil, &domain.UpstreamError{Provider: "xai", Status: status, Message: truncate(string(body), 300)}
		}

		delay := p.baseDelay * (1 << attempt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, &domain.UpstreamError{Provider: "xai", Message: "upstream overloaded, retries exhausted"}
}

func (p *GrokProvider) post(ctx context.Context, req grokRequest) ([]byte, int, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, 0, &domain.UpstreamError{Provider: "xai", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func responseText(body []byte) (string, error) {
	var parsed grokResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &domain.MalformedResponseError{Provider: "xai", Reason: err.Error()}
	}
	if len(parsed.Choices) == 0 {
		return "", &domain.MalformedResponseError{Provider: "xai", Reason: "no choices in response"}
	}
	return parsed.Choices[0].Message.Content, nil
}

func normalizeImplication(v string) domain.Sentiment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "bull", "bullish", "positive":
		return domain.SentimentBullish
	case "bear", "bearish", "negative":
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

const intelSystemPrompt = `You are a crypto market intelligence analyst with live web and X search access.

Rules:
- Only report claims you can verify from the provided search window. Never use older material.
- Never fabricate statistics, flows, or quotes. If you cannot verify a number, leave it out.
- If nothing verifiable exists for a section, return an empty array for it. Empty is always better than speculation.
- Only attribute a price direction to a claim when you can name a causal price mechanism: ETF creations/redemptions, exchange inflows/outflows, token unlocks, liquidation cascades, or rate policy. "Network activity", "address growth", "whale accumulation" and similar on-chain vagueness are NOT price mechanisms.
- Cite only the trusted accounts and outlets listed by the user. If a claim has no credible citation, omit the sourceUrl field entirely. Never invent a URL.
- Respond with a single JSON object and nothing else:
{"themes":[{"theme":"REGULATORY","insight":"...","implication":"bullish|bearish|neutral","claims":[{"text":"...","sourceUrl":"..."}]}],"priceDrivers":[{"text":"...","sourceUrl":"..."}],"breakingNews":[{"text":"...","sourceUrl":"..."}],"sentiment":"bullish|bearish|neutral"}`

func buildIntelUserPrompt(from, to time.Time) string {
	var sb strings.Builder
	sb.WriteString("Summarize the crypto market narratives between ")
	sb.WriteString(from.Format(time.RFC3339))
	sb.WriteString(" and ")
	sb.WriteString(to.Format(time.RFC3339))
	sb.WriteString(".\n\nGroup findings into named themes (REGULATORY, ETF_FLOWS, MACRO, EXCHANGE_FLOWS, SECTOR). ")
	sb.WriteString("List separate price drivers and breaking news.\n\nTrusted sources (cite only these): ")
	sb.WriteString(strings.Join(CuratedAccounts(), ", "))
	return sb.String()
}

const reportSystemPrompt = `You are a crypto market analyst writing a long-form daily report. Use your live search results from the given window only. Structure the report in plain prose sections: market overview, per-asset notes for the listed coins, flows and positioning, and a near-term outlook. Every directional statement needs a stated causal mechanism. Never fabricate data.`

func buildReportUserPrompt(coins []domain.CoinSnapshot, from, to time.Time) string {
	var sb strings.Builder
	sb.WriteString("Write today's market report covering the window ")
	sb.WriteString(from.Format(time.RFC3339))
	sb.WriteString(" to ")
	sb.WriteString(to.Format(time.RFC3339))
	sb.WriteString(".\n\nCurrent prices:\n")
	for _, c := range coins {
		sb.WriteString(fmt.Sprintf("  %s: %s (24h %s, 7d %s)\n",
			c.Symbol, FormatPrice(c.Symbol, c.PriceUSD), FormatChange(c.Change24hPct), FormatChange(c.Change7dPct)))
	}
	return sb.String()
}
