package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whats-up/internal/bot"
	"whats-up/internal/briefing"
	"whats-up/internal/cache"
	"whats-up/internal/config"
	"whats-up/internal/db"
	"whats-up/internal/governor"
	"whats-up/internal/handler"
	"whats-up/internal/job"
	"whats-up/internal/provider"
	"whats-up/internal/repository"
	"whats-up/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "whats-up/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	startTelegramBotFunc   = bot.StartTelegramBot
	startJobFunc           = func(j *job.RefreshJob, ctx context.Context) { go j.Start(ctx) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Whats Up API
// @version         1.0
// @description     Cached crypto market briefings synthesized from prices, social intelligence, and ranked evidence.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories and migrations (optional: no DATABASE_URL means no
	// archive and no bot memory, the serving path works regardless)
	var (
		archiver briefing.Archiver
		history  handler.BriefingHistory
		convos   bot.ConversationStore
	)
	if db.Pool != nil {
		briefingRepo := repository.NewBriefingRepository(db.Pool, tracer)
		convoRepo := repository.NewConversationRepository(db.Pool, tracer)
		if err := briefingRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		if err := convoRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		archiver = briefingRepo
		history = briefingRepo
		convos = convoRepo
	}

	// Durable cache tier: Redis when configured, local file otherwise
	var durable cache.DurableStore
	if cfg.RedisURL != "" {
		durable = cache.NewRedisStore(initRedisFunc(ctx, cfg.RedisURL))
	} else {
		durable = cache.NewFileStore(cfg.CacheDir)
	}
	briefingCache := cache.New(durable, cfg.CacheTTL)

	// Providers
	cgProvider := provider.NewCoinGeckoProvider(tracer, cfg.CoinGeckoBaseURL)
	grokProvider := provider.NewGrokProvider(tracer, cfg.XAIAPIKey, cfg.XAIModel)
	xProvider := provider.NewXSearchProvider(tracer, cfg.XBearerToken)

	// Synthesis
	llm := briefing.NewOpenAIClient(cfg.OpenAIAPIKey)
	synth := briefing.NewSynthesizer(tracer, llm, cfg.OpenAIModel, cfg.SynthMaxTokens)
	followUp := briefing.NewFollowUpEngine(tracer, llm, cfg.OpenAIModel)

	// Cost gates
	limiter := governor.NewClientRateLimiter(cfg.RateLimitPerMin, time.Minute)
	cooldown := governor.NewRefreshCooldown(cfg.RefreshCooldown, cfg.AdminRefreshToken)
	budget := governor.NewDailyBudget(cfg.DailyBudget)

	svc := briefing.NewService(
		tracer,
		cgProvider,
		grokProvider,
		xProvider,
		synth,
		followUp,
		grokProvider,
		briefingCache,
		limiter,
		cooldown,
		budget,
		archiver,
	)

	// Background refresh keeps the cache warm
	if cfg.RefreshJobEnabled {
		refreshJob := job.NewRefreshJob(tracer, svc, cfg.RefreshJobInterval)
		startJobFunc(refreshJob, ctx)
	}

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(svc, cgProvider, convos, cfg.BotMaxHistory)

	// Create handlers and routes
	h := handler.New(tracer, svc, cgProvider, history, cfg.CronSecret)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("whats-up"))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
