package bot

import (
	"strings"
	"testing"
	"time"

	"whats-up/internal/domain"
)

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	StartTelegramBot(nil, nil, nil, 20)
}

func TestFormatBriefing(t *testing.T) {
	now := time.Now()
	entry := &domain.CachedBriefing{
		Data: domain.Briefing{
			Bullets: []domain.BulletPoint{
				{
					Main: "BTC reclaimed $93k after ETF inflows resumed.",
					SubPoints: []domain.SubPoint{
						{Text: "Spot ETFs took in $400M on Thursday."},
					},
				},
				{Main: "ETH lagged the move."},
			},
			Conclusion:  "Dip buyers remain in control.",
			Sentiment:   domain.SentimentBullish,
			GeneratedAt: now,
		},
		Timestamp: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}

	msg := formatBriefing(entry)

	if !strings.Contains(msg, "bullish") {
		t.Errorf("expected sentiment label, got: %s", msg)
	}
	if !strings.Contains(msg, "• BTC reclaimed $93k") {
		t.Errorf("expected bullet line, got: %s", msg)
	}
	if !strings.Contains(msg, "- Spot ETFs took in $400M") {
		t.Errorf("expected sub-point line, got: %s", msg)
	}
	if !strings.Contains(msg, "Dip buyers remain in control.") {
		t.Errorf("expected conclusion, got: %s", msg)
	}
	if !strings.Contains(msg, "Generated just now") {
		t.Errorf("expected age line, got: %s", msg)
	}
}

func TestSentimentLabelDefaultsToNeutral(t *testing.T) {
	if got := sentimentLabel(domain.Sentiment("weird")); !strings.Contains(got, "neutral") {
		t.Errorf("unexpected label: %s", got)
	}
}
