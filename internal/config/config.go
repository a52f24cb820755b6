package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        int
	DatabaseURL string
	RedisURL    string

	CoinGeckoBaseURL string

	XAIAPIKey string
	XAIModel  string

	XBearerToken string

	OpenAIAPIKey   string
	OpenAIModel    string
	SynthMaxTokens int

	CacheTTL time.Duration
	CacheDir string

	RateLimitPerMin int
	RefreshCooldown time.Duration
	DailyBudget     int

	AdminRefreshToken string
	CronSecret        string

	TelegramBotToken string
	BotMaxHistory    int

	RefreshJobEnabled  bool
	RefreshJobInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		XAIAPIKey:         os.Getenv("XAI_API_KEY"),
		XBearerToken:      os.Getenv("X_BEARER_TOKEN"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		AdminRefreshToken: os.Getenv("ADMIN_REFRESH_TOKEN"),
		CronSecret:        os.Getenv("CRON_SECRET"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, briefing synthesis will fail")
	}
	if cfg.XAIAPIKey == "" {
		log.Println("Warning: XAI_API_KEY not set, social intelligence disabled")
	}
	if cfg.XBearerToken == "" {
		log.Println("Warning: X_BEARER_TOKEN not set, raw evidence disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, briefing archive and bot history disabled")
	}
	if cfg.CronSecret == "" {
		log.Println("Warning: CRON_SECRET not set, cron refresh endpoint disabled")
	}

	cfg.Port = 8080
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}

	cfg.CoinGeckoBaseURL = strings.TrimSpace(os.Getenv("COINGECKO_BASE_URL"))

	cfg.XAIModel = strings.TrimSpace(os.Getenv("XAI_MODEL"))
	if cfg.XAIModel == "" {
		cfg.XAIModel = "grok-3"
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.SynthMaxTokens = 2000
	if v := strings.TrimSpace(os.Getenv("SYNTH_MAX_TOKENS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SynthMaxTokens = n
		}
	}

	ttlHours := 24
	if v := strings.TrimSpace(os.Getenv("CACHE_TTL_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttlHours = n
		}
	}
	cfg.CacheTTL = time.Duration(ttlHours) * time.Hour

	cfg.CacheDir = strings.TrimSpace(os.Getenv("CACHE_DIR"))
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.TempDir()
	}

	cfg.RateLimitPerMin = 10
	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitPerMin = n
		}
	}

	cooldownMins := 10
	if v := strings.TrimSpace(os.Getenv("REFRESH_COOLDOWN_MINS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cooldownMins = n
		}
	}
	cfg.RefreshCooldown = time.Duration(cooldownMins) * time.Minute

	cfg.DailyBudget = 200
	if v := strings.TrimSpace(os.Getenv("DAILY_BUDGET")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DailyBudget = n
		}
	}

	cfg.BotMaxHistory = 20
	if v := strings.TrimSpace(os.Getenv("BOT_MAX_HISTORY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BotMaxHistory = n
		}
	}

	cfg.RefreshJobEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("REFRESH_JOB_ENABLED")), "false")

	jobHours := ttlHours
	if v := strings.TrimSpace(os.Getenv("REFRESH_JOB_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			jobHours = n
		}
	}
	cfg.RefreshJobInterval = time.Duration(jobHours) * time.Hour

	return cfg
}
