package briefing

import (
	"testing"

	"whats-up/internal/domain"
)

func coinsWithChanges(changes ...float64) []domain.CoinSnapshot {
	coins := make([]domain.CoinSnapshot, len(changes))
	for i, c := range changes {
		coins[i] = domain.CoinSnapshot{Change24hPct: c}
	}
	return coins
}

func TestComputeFallbackSentiment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		changes []float64
		want    domain.Sentiment
	}{
		{"strongly up", []float64{3.0, 4.0, 2.5}, domain.SentimentBullish},
		{"strongly down", []float64{-3.0, -4.0, -2.5}, domain.SentimentBearish},
		{"flat", []float64{0.5, -0.3, 1.0}, domain.SentimentNeutral},
		{"exactly at threshold", []float64{2.0, 2.0}, domain.SentimentNeutral},
		{"no coins", nil, domain.SentimentNeutral},
		{"mixed cancels out", []float64{5.0, -5.0}, domain.SentimentNeutral},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ComputeFallbackSentiment(coinsWithChanges(tc.changes...)); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDeriveSentimentFromText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		conclusion string
		fallback   domain.Sentiment
		want       domain.Sentiment
	}{
		{
			"plain bearish",
			"The market is leaning bearish into the weekend.",
			domain.SentimentNeutral,
			domain.SentimentBearish,
		},
		{
			"plain bullish",
			"Momentum looks bullish across majors.",
			domain.SentimentNeutral,
			domain.SentimentBullish,
		},
		{
			"negated bearish keeps fallback",
			"The setup is not bearish despite the pullback.",
			domain.SentimentNeutral,
			domain.SentimentNeutral,
		},
		{
			"negation window reaches three words back",
			"This is hardly a deeply bearish market.",
			domain.SentimentBullish,
			domain.SentimentBullish,
		},
		{
			"both directions inconclusive",
			"Bullish flows met bearish macro headlines.",
			domain.SentimentNeutral,
			domain.SentimentNeutral,
		},
		{
			"derived form matches",
			"Traders noted growing bearishness in the options market.",
			domain.SentimentNeutral,
			domain.SentimentBearish,
		},
		{
			"no direction keeps fallback",
			"Markets traded sideways on light volume.",
			domain.SentimentBearish,
			domain.SentimentBearish,
		},
		{
			"negated bullish with clean bearish",
			"Not bullish anymore: the tape turned bearish on Friday.",
			domain.SentimentNeutral,
			domain.SentimentBearish,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveSentimentFromText(tc.conclusion, tc.fallback); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNormalizeSentiment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   domain.Sentiment
		wantOK bool
	}{
		{"bullish", domain.SentimentBullish, true},
		{" Bearish ", domain.SentimentBearish, true},
		{"NEUTRAL", domain.SentimentNeutral, true},
		{"mixed", domain.SentimentNeutral, true},
		{"positive", domain.SentimentBullish, true},
		{"sideways", domain.SentimentNeutral, false},
		{"", domain.SentimentNeutral, false},
	}

	for _, tc := range cases {
		got, ok := normalizeSentiment(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("normalizeSentiment(%q) = (%s, %v), want (%s, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}
