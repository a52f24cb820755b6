package handler

import (
	"context"

	"whats-up/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// BriefingService is the surface of the briefing pipeline the HTTP layer
// needs.
type BriefingService interface {
	Get(ctx context.Context, client string, force bool, adminToken string) (*domain.CachedBriefing, error)
	RefreshForSchedule(ctx context.Context) (*domain.CachedBriefing, error)
	FollowUp(ctx context.Context, client, question string, history []domain.ChatMessage, focusIndex int) (string, error)
	Report(ctx context.Context, client string) (string, error)
	Cached(ctx context.Context) *domain.CachedBriefing
}

// PriceFetcher serves the raw price endpoints without going through the
// briefing pipeline.
type PriceFetcher interface {
	FetchUniverse(ctx context.Context, size int) ([]domain.CoinSnapshot, error)
	FetchSelected(ctx context.Context, ids []string) ([]domain.CoinSnapshot, error)
}

// BriefingHistory lists archived briefings. Nil when no database is
// configured.
type BriefingHistory interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Briefing, error)
}

type Handler struct {
	tracer     trace.Tracer
	briefings  BriefingService
	prices     PriceFetcher
	history    BriefingHistory
	cronSecret string
}

func New(tracer trace.Tracer, briefings BriefingService, prices PriceFetcher, history BriefingHistory, cronSecret string) *Handler {
	return &Handler{
		tracer:     tracer,
		briefings:  briefings,
		prices:     prices,
		history:    history,
		cronSecret: cronSecret,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/briefing", h.GetBriefing)
	r.POST("/api/briefing/refresh", h.RefreshBriefing)
	r.POST("/api/followup", h.FollowUp)
	r.POST("/api/report", h.GenerateReport)
	r.GET("/api/briefings/recent", h.RecentBriefings)
	r.GET("/api/prices", h.GetPrices)
	r.GET("/api/movers", h.GetMovers)
	r.POST("/api/cron/refresh", CronAuth(h.cronSecret), h.CronRefresh)
}
