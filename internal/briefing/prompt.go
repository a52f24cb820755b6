package briefing

import (
	"fmt"
	"strings"
	"time"

	"whats-up/internal/domain"
	"whats-up/internal/provider"
)

const synthesisSystemPrompt = `You are a skeptical crypto market analyst writing a daily briefing.

Grounding rules:
- Use ONLY the price data, intelligence claims, and verified posts provided. Never introduce outside facts, and never fabricate statistics.
- Every claim with a price-direction implication must state a causal mechanism: ETF creations/redemptions, exchange inflows/outflows, token unlocks, liquidation cascades, or rate policy. Vague on-chain metrics (network activity, address counts, TVL, generic whale accumulation) are NOT acceptable directional evidence unless a concrete transmission mechanism to price is stated.
- Treat the verified posts block as ground truth. If an intelligence claim conflicts with it, prefer the posts or drop the claim.
- Carry source URLs through when the input provides them. Never invent a URL.
- If the enrichment inputs are empty, write the briefing from the price data alone.

Respond with a single JSON object and nothing else:
{"bullets":[{"main":"...","sourceUrl":"...","subPoints":[{"text":"...","sourceUrl":"..."}]}],"conclusion":"<directional stance, rationale, and one thing to watch>","sentiment":"bullish|bearish|neutral"}`

func buildSynthesisPrompt(coins []domain.CoinSnapshot, intel domain.SocialIntelligence, evidence []domain.RankedSocialPost) string {
	var sb strings.Builder

	sb.WriteString("Market briefing inputs as of ")
	sb.WriteString(time.Now().UTC().Format(time.RFC822))
	sb.WriteString("\n\n--- PRICES ---\n")
	for _, c := range coins {
		sb.WriteString(fmt.Sprintf("%s: %s (24h %s, 7d %s)\n",
			c.Symbol,
			provider.FormatPrice(c.Symbol, c.PriceUSD),
			provider.FormatChange(c.Change24hPct),
			provider.FormatChange(c.Change7dPct)))
	}

	if !intel.IsEmpty() {
		sb.WriteString("\n--- MARKET INTELLIGENCE (AI-synthesized, verify against ground truth) ---\n")
		for _, t := range intel.Themes {
			sb.WriteString(fmt.Sprintf("[%s] (%s) %s\n", t.Theme, t.Implication, t.Insight))
			for _, c := range t.Claims {
				sb.WriteString("  - " + claimLine(c) + "\n")
			}
		}
		if len(intel.PriceDrivers) > 0 {
			sb.WriteString("Price drivers:\n")
			for _, c := range intel.PriceDrivers {
				sb.WriteString("  - " + claimLine(c) + "\n")
			}
		}
		if len(intel.BreakingNews) > 0 {
			sb.WriteString("Breaking news:\n")
			for _, c := range intel.BreakingNews {
				sb.WriteString("  - " + claimLine(c) + "\n")
			}
		}
	}

	if len(evidence) > 0 {
		sb.WriteString("\n--- VERIFIED GROUND TRUTH (real posts from trusted accounts) ---\n")
		for _, post := range evidence {
			sb.WriteString(fmt.Sprintf("@%s (%s followers, %d likes): %s",
				post.AuthorHandle, humanCount(post.FollowerCount), post.Likes, post.Text))
			if post.URL != "" {
				sb.WriteString(" [source: " + post.URL + "]")
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nWrite the briefing now.")
	return sb.String()
}

func claimLine(c domain.SourcedClaim) string {
	if c.SourceURL != "" {
		return c.Text + " [source: " + c.SourceURL + "]"
	}
	return c.Text
}

func humanCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.0fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

const followUpSystemPrompt = `You answer follow-up questions about a crypto market briefing. Ground every answer in the briefing context provided; if the briefing does not cover something, say so rather than speculating. Respond in plain prose only: no markdown headers, no bullet lists. Separate distinct points with paragraph breaks. Keep it conversational and concise.`

// FollowUpContext is the cached briefing state a follow-up is answered against.
type FollowUpContext struct {
	Bullets    []domain.BulletPoint
	Conclusion string
	Sentiment  domain.Sentiment
}

func buildFollowUpPrompt(bctx FollowUpContext, focusIndex int) string {
	var sb strings.Builder
	sb.WriteString("Current briefing:\n")
	for i, b := range bctx.Bullets {
		marker := "-"
		if i == focusIndex {
			marker = ">" // the bullet the user is asking about
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", marker, b.Main))
		for _, sub := range b.SubPoints {
			sb.WriteString("    * " + claimLine(sub) + "\n")
		}
	}
	sb.WriteString("\nConclusion: " + bctx.Conclusion + "\n")
	sb.WriteString("Sentiment: " + string(bctx.Sentiment) + "\n")
	if focusIndex >= 0 && focusIndex < len(bctx.Bullets) {
		sb.WriteString("\nThe user is asking specifically about the bullet marked with \">\".\n")
	}
	return sb.String()
}
