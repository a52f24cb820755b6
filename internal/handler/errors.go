package handler

import (
	"errors"
	"math"
	"net/http"
	"time"

	"whats-up/internal/briefing"
	"whats-up/internal/domain"

	"github.com/gin-gonic/gin"
)

func retrySecs(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// writeError maps pipeline errors onto distinct HTTP classes so clients can
// tell "come back later" apart from "upstream is broken".
func writeError(c *gin.Context, err error) {
	var (
		rateErr      *domain.RateLimitedError
		cooldownErr  *domain.CooldownError
		budgetErr    *domain.BudgetExceededError
		upstreamErr  *domain.UpstreamError
		malformedErr *domain.MalformedResponseError
		configErr    *domain.ConfigMissingError
	)

	switch {
	case errors.Is(err, briefing.ErrNoBriefing):
		c.JSON(http.StatusNotFound, gin.H{"error": "no briefing available yet"})
	case errors.As(err, &rateErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":          "rate limit exceeded",
			"retryAfterSecs": retrySecs(rateErr.RetryAfter),
		})
	case errors.As(err, &cooldownErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":          "refresh cooldown active",
			"retryAfterSecs": retrySecs(cooldownErr.RetryAfter),
		})
	case errors.As(err, &budgetErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "daily generation budget exhausted",
			"resetAt": budgetErr.ResetAt.Format(time.RFC3339),
		})
	case errors.As(err, &upstreamErr), errors.As(err, &malformedErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &configErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
