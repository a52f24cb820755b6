package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"whats-up/internal/cache"
	"whats-up/internal/domain"

	tele "gopkg.in/telebot.v3"
)

// BriefingService is the slice of the briefing pipeline the bot uses.
type BriefingService interface {
	Get(ctx context.Context, client string, force bool, adminToken string) (*domain.CachedBriefing, error)
	FollowUp(ctx context.Context, client, question string, history []domain.ChatMessage, focusIndex int) (string, error)
}

// PriceFetcher serves the /price command.
type PriceFetcher interface {
	FetchSelected(ctx context.Context, ids []string) ([]domain.CoinSnapshot, error)
}

// ConversationStore keeps per-chat follow-up history. Nil disables memory.
type ConversationStore interface {
	AppendMessage(ctx context.Context, chatID int64, role, content string) error
	RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.ChatMessage, error)
}

func StartTelegramBot(svc BriefingService, prices PriceFetcher, convos ConversationStore, maxHistory int) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/briefing", func(c tele.Context) error {
		// A fresh synthesis can take a while; acknowledge first, then edit
		// the placeholder in place once the briefing is ready.
		placeholder, err := b.Send(c.Recipient(), "On it, pulling the latest market picture...")
		if err != nil {
			return err
		}

		client := fmt.Sprintf("telegram:%d", c.Chat().ID)
		entry, err := svc.Get(context.Background(), client, false, "")
		if err != nil {
			_, editErr := b.Edit(placeholder, "Couldn't build a briefing right now: "+err.Error())
			return editErr
		}

		_, err = b.Edit(placeholder, formatBriefing(entry), tele.NoPreview)
		return err
	})

	b.Handle("/ask", func(c tele.Context) error {
		question := strings.TrimSpace(strings.Join(c.Args(), " "))
		if question == "" {
			return c.Send("Usage: /ask why is BTC down today?")
		}

		ctx := context.Background()
		chatID := c.Chat().ID

		var history []domain.ChatMessage
		if convos != nil {
			recent, err := convos.RecentMessages(ctx, chatID, maxHistory)
			if err != nil {
				log.Printf("failed to load conversation history for chat %d: %v", chatID, err)
			} else {
				history = recent
			}
		}

		client := fmt.Sprintf("telegram:%d", chatID)
		answer, err := svc.FollowUp(ctx, client, question, history, -1)
		if err != nil {
			return c.Send("Couldn't answer that: " + err.Error())
		}

		if convos != nil {
			if err := convos.AppendMessage(ctx, chatID, "user", question); err != nil {
				log.Printf("failed to store question for chat %d: %v", chatID, err)
			}
			if err := convos.AppendMessage(ctx, chatID, "assistant", answer); err != nil {
				log.Printf("failed to store answer for chat %d: %v", chatID, err)
			}
		}

		return c.Send(answer)
	})

	b.Handle("/price", func(c tele.Context) error {
		coins, err := prices.FetchSelected(context.Background(), domain.HeadlineCoins)
		if err != nil {
			return c.Send("Error fetching prices: " + err.Error())
		}

		var sb strings.Builder
		for _, coin := range coins {
			fmt.Fprintf(&sb, "%s: $%.2f (%+.1f%%)\n", coin.Symbol, coin.PriceUSD, coin.Change24hPct)
		}
		return c.Send(strings.TrimRight(sb.String(), "\n"))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func formatBriefing(entry *domain.CachedBriefing) string {
	var sb strings.Builder

	sb.WriteString(sentimentLabel(entry.Data.Sentiment))
	sb.WriteString("\n\n")

	for _, bullet := range entry.Data.Bullets {
		sb.WriteString("• ")
		sb.WriteString(bullet.Main)
		sb.WriteString("\n")
		for _, sub := range bullet.SubPoints {
			sb.WriteString("    - ")
			sb.WriteString(sub.Text)
			sb.WriteString("\n")
		}
	}

	if entry.Data.Conclusion != "" {
		sb.WriteString("\n")
		sb.WriteString(entry.Data.Conclusion)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nGenerated %s", cache.Age(*entry, time.Now()))
	return sb.String()
}

func sentimentLabel(s domain.Sentiment) string {
	switch s {
	case domain.SentimentBullish:
		return "📈 Market mood: bullish"
	case domain.SentimentBearish:
		return "📉 Market mood: bearish"
	default:
		return "➖ Market mood: neutral"
	}
}
