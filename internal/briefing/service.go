package briefing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"whats-up/internal/domain"
	"whats-up/internal/provider"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// ErrNoBriefing is returned when a read-only operation needs a briefing and
// none has been synthesized yet.
var ErrNoBriefing = errors.New("no briefing available yet")

// universeSize covers every top-movers tier: smaller tiers are prefixes of
// the rank-ordered 300-coin universe.
const universeSize = 300

type PriceSource interface {
	FetchUniverse(ctx context.Context, size int) ([]domain.CoinSnapshot, error)
	FetchSelected(ctx context.Context, ids []string) ([]domain.CoinSnapshot, error)
}

type IntelSource interface {
	FetchIntelligence(ctx context.Context) domain.SocialIntelligence
}

type EvidenceSource interface {
	FetchRankedPosts(ctx context.Context) []domain.RankedSocialPost
}

type ReportSource interface {
	GenerateReport(ctx context.Context, coins []domain.CoinSnapshot) (string, error)
}

type Synthesis interface {
	Synthesize(ctx context.Context, coins []domain.CoinSnapshot, intel domain.SocialIntelligence,
		evidence []domain.RankedSocialPost, movers map[int]domain.TopMoversTier) (*domain.Briefing, error)
}

type Cache interface {
	Get(ctx context.Context) *domain.CachedBriefing
	Put(ctx context.Context, b domain.Briefing) domain.CachedBriefing
}

// RateLimiter gates every client-triggered operation.
type RateLimiter interface {
	Allow(client string) error
}

// Cooldown gates cache-bypassing force refreshes per client, with an
// optional admin bypass token.
type Cooldown interface {
	Allow(client, adminToken string) error
}

// Budget is the global daily synthesis counter.
type Budget interface {
	Allow() error
	Spend()
}

// Archiver persists generated briefings. Optional.
type Archiver interface {
	SaveBriefing(ctx context.Context, b domain.Briefing) error
}

// Service orchestrates the briefing pipeline: gates, cache, parallel
// provider fan-out, synthesis, and the follow-up/report surfaces.
type Service struct {
	tracer   trace.Tracer
	prices   PriceSource
	intel    IntelSource
	evidence EvidenceSource
	synth    Synthesis
	followUp *FollowUpEngine
	reporter ReportSource
	cache    Cache
	limiter  RateLimiter
	cooldown Cooldown
	budget   Budget
	archive  Archiver

	// Concurrent cache misses share one synthesis instead of each spending
	// budget on their own.
	flight singleflight.Group
}

func NewService(
	tracer trace.Tracer,
	prices PriceSource,
	intel IntelSource,
	evidence EvidenceSource,
	synth Synthesis,
	followUp *FollowUpEngine,
	reporter ReportSource,
	cache Cache,
	limiter RateLimiter,
	cooldown Cooldown,
	budget Budget,
	archive Archiver,
) *Service {
	return &Service{
		tracer:   tracer,
		prices:   prices,
		intel:    intel,
		evidence: evidence,
		synth:    synth,
		followUp: followUp,
		reporter: reporter,
		cache:    cache,
		limiter:  limiter,
		cooldown: cooldown,
		budget:   budget,
		archive:  archive,
	}
}

// Get returns the current briefing, synthesizing on a cache miss. force
// bypasses the cache (subject to the per-client cooldown; adminToken may
// skip it). Cache hits never touch the daily budget.
func (s *Service) Get(ctx context.Context, client string, force bool, adminToken string) (*domain.CachedBriefing, error) {
	ctx, span := s.tracer.Start(ctx, "briefing.get")
	defer span.End()
	span.SetAttributes(attribute.Bool("force", force))

	if err := s.limiter.Allow(client); err != nil {
		return nil, err
	}

	if force {
		if err := s.cooldown.Allow(client, adminToken); err != nil {
			return nil, err
		}
	} else if cached := s.cache.Get(ctx); cached != nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	return s.synthesizeShared(ctx)
}

// RefreshForSchedule regenerates the cache with no client-facing gating.
// The caller (cron handler) is responsible for authenticating the trigger.
func (s *Service) RefreshForSchedule(ctx context.Context) (*domain.CachedBriefing, error) {
	ctx, span := s.tracer.Start(ctx, "briefing.refresh-for-schedule")
	defer span.End()
	return s.synthesizeShared(ctx)
}

func (s *Service) synthesizeShared(ctx context.Context) (*domain.CachedBriefing, error) {
	v, err, _ := s.flight.Do("briefing", func() (any, error) {
		return s.synthesizeOnce(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CachedBriefing), nil
}

func (s *Service) synthesizeOnce(ctx context.Context) (*domain.CachedBriefing, error) {
	ctx, span := s.tracer.Start(ctx, "briefing.synthesize-once")
	defer span.End()

	if err := s.budget.Allow(); err != nil {
		return nil, err
	}

	coins, movers, intel, evidence, err := s.fetchInputs(ctx)
	if err != nil {
		return nil, err
	}

	b, err := s.synth.Synthesize(ctx, coins, intel, evidence, movers)
	if err != nil {
		return nil, err
	}

	cached := s.cache.Put(ctx, *b)
	s.budget.Spend()

	if s.archive != nil {
		if err := s.archive.SaveBriefing(ctx, *b); err != nil {
			log.Printf("briefing archive write failed: %v", err)
		}
	}

	return &cached, nil
}

// fetchInputs fans out the three provider calls concurrently and joins
// before synthesis. Prices are required; intelligence and evidence degrade
// to empty inside their adapters.
func (s *Service) fetchInputs(ctx context.Context) (
	[]domain.CoinSnapshot,
	map[int]domain.TopMoversTier,
	domain.SocialIntelligence,
	[]domain.RankedSocialPost,
	error,
) {
	ctx, span := s.tracer.Start(ctx, "briefing.fetch-inputs")
	defer span.End()

	var (
		wg       sync.WaitGroup
		coins    []domain.CoinSnapshot
		universe []domain.CoinSnapshot
		priceErr error
		intel    domain.SocialIntelligence
		evidence []domain.RankedSocialPost
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		coins, priceErr = s.prices.FetchSelected(ctx, domain.HeadlineCoins)
		if priceErr != nil {
			return
		}
		universe, priceErr = s.prices.FetchUniverse(ctx, universeSize)
	}()
	go func() {
		defer wg.Done()
		intel = s.intel.FetchIntelligence(ctx)
	}()
	go func() {
		defer wg.Done()
		evidence = s.evidence.FetchRankedPosts(ctx)
	}()
	wg.Wait()

	if priceErr != nil {
		return nil, nil, domain.SocialIntelligence{}, nil, fmt.Errorf("fetch prices: %w", priceErr)
	}

	movers := make(map[int]domain.TopMoversTier, len(domain.TierSizes))
	for _, size := range domain.TierSizes {
		slice := universe
		if len(slice) > size {
			slice = slice[:size]
		}
		movers[size] = provider.DeriveTopMovers(size, slice)
	}

	return coins, movers, intel, evidence, nil
}

// FollowUp answers a question against the cached briefing. It never triggers
// synthesis and is gated by the rate limit only.
func (s *Service) FollowUp(ctx context.Context, client, question string, history []domain.ChatMessage, focusIndex int) (string, error) {
	ctx, span := s.tracer.Start(ctx, "briefing.follow-up-request")
	defer span.End()

	if err := s.limiter.Allow(client); err != nil {
		return "", err
	}

	cached := s.cache.Get(ctx)
	if cached == nil {
		return "", ErrNoBriefing
	}

	return s.followUp.Answer(ctx, question, FollowUpContext{
		Bullets:    cached.Data.Bullets,
		Conclusion: cached.Data.Conclusion,
		Sentiment:  cached.Data.Sentiment,
	}, history, focusIndex)
}

// Report generates a long-form market report. Budget-charged like a
// synthesis since it is an upstream-AI-costing call.
func (s *Service) Report(ctx context.Context, client string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "briefing.report-request")
	defer span.End()

	if err := s.limiter.Allow(client); err != nil {
		return "", err
	}
	if err := s.budget.Allow(); err != nil {
		return "", err
	}

	coins, err := s.prices.FetchSelected(ctx, domain.HeadlineCoins)
	if err != nil {
		return "", fmt.Errorf("fetch prices: %w", err)
	}

	report, err := s.reporter.GenerateReport(ctx, coins)
	if err != nil {
		return "", err
	}
	s.budget.Spend()
	return report, nil
}

// Cached exposes the current cache entry (or nil) without any gating, for
// read-only surfaces like the bot and the age display.
func (s *Service) Cached(ctx context.Context) *domain.CachedBriefing {
	return s.cache.Get(ctx)
}
