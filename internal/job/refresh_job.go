// Package job holds background workers started from main and stopped by
// context cancellation.
package job

import (
	"context"
	"log"
	"time"

	"whats-up/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type Refresher interface {
	RefreshForSchedule(ctx context.Context) (*domain.CachedBriefing, error)
	Cached(ctx context.Context) *domain.CachedBriefing
}

// RefreshJob keeps the briefing cache warm so the first morning reader gets
// a hit instead of paying synthesis latency.
type RefreshJob struct {
	tracer       trace.Tracer
	refresher    Refresher
	pollInterval time.Duration
}

func NewRefreshJob(tracer trace.Tracer, refresher Refresher, pollInterval time.Duration) *RefreshJob {
	if pollInterval <= 0 {
		pollInterval = 6 * time.Hour
	}
	return &RefreshJob{tracer: tracer, refresher: refresher, pollInterval: pollInterval}
}

func (j *RefreshJob) Start(ctx context.Context) {
	if j.refresher == nil {
		log.Println("Briefing refresh job disabled: no service")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)
	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *RefreshJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "refresh-job.run-once")
	defer span.End()

	// A still-valid cache means readers are served; don't burn budget early.
	if cached := j.refresher.Cached(ctx); cached != nil {
		return
	}

	entry, err := j.refresher.RefreshForSchedule(ctx)
	if err != nil {
		log.Printf("Scheduled briefing refresh error: %v", err)
		return
	}
	log.Printf("Scheduled briefing refresh complete sentiment=%s bullets=%d", entry.Data.Sentiment, len(entry.Data.Bullets))
}
