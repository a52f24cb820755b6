package briefing

import (
	"strings"

	"whats-up/internal/domain"
)

// Mean 24h change beyond ±2% across the headline set tips the fallback
// sentiment out of neutral.
const fallbackThresholdPct = 2.0

// ComputeFallbackSentiment derives a coarse sentiment from the mean 24h
// change of the given coins. This is the numeric fallback; the displayed
// sentiment is re-derived from the conclusion text when possible.
func ComputeFallbackSentiment(coins []domain.CoinSnapshot) domain.Sentiment {
	if len(coins) == 0 {
		return domain.SentimentNeutral
	}
	var sum float64
	for _, c := range coins {
		sum += c.Change24hPct
	}
	mean := sum / float64(len(coins))
	switch {
	case mean > fallbackThresholdPct:
		return domain.SentimentBullish
	case mean < -fallbackThresholdPct:
		return domain.SentimentBearish
	default:
		return domain.SentimentNeutral
	}
}

var negators = map[string]bool{
	"not":     true,
	"never":   true,
	"no":      true,
	"isn't":   true,
	"aren't":  true,
	"hardly":  true,
	"without": true,
	"nor":     true,
}

// DeriveSentimentFromText re-derives sentiment from the conclusion prose.
// The model's structured sentiment field has been observed to under-report
// the direction its own conclusion states ("leaning bearish" alongside a
// "neutral" field), so the prose wins. Negated mentions ("not bearish") are
// suppressed. An inconclusive text falls back to the provided sentiment.
func DeriveSentimentFromText(conclusion string, fallback domain.Sentiment) domain.Sentiment {
	text := strings.ToLower(conclusion)
	bullish := mentionsDirection(text, "bullish")
	bearish := mentionsDirection(text, "bearish")

	switch {
	case bullish && !bearish:
		return domain.SentimentBullish
	case bearish && !bullish:
		return domain.SentimentBearish
	default:
		// Neither, or both: the text is inconclusive.
		return fallback
	}
}

// mentionsDirection reports whether word occurs non-negated in text: at
// least one occurrence whose three preceding words contain no negator.
func mentionsDirection(text, word string) bool {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r == '\'')
	})
	for i, w := range words {
		if !strings.HasPrefix(w, word) {
			continue
		}
		negated := false
		for j := i - 3; j < i; j++ {
			if j >= 0 && negators[words[j]] {
				negated = true
				break
			}
		}
		if !negated {
			return true
		}
	}
	return false
}

func normalizeSentiment(v string) (domain.Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "bull", "bullish", "positive":
		return domain.SentimentBullish, true
	case "bear", "bearish", "negative":
		return domain.SentimentBearish, true
	case "neutral", "mixed":
		return domain.SentimentNeutral, true
	default:
		return domain.SentimentNeutral, false
	}
}
