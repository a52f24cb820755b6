package handler

import (
	"net/http"
	"time"

	"whats-up/internal/cache"
	"whats-up/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type followUpRequest struct {
	Question   string               `json:"question" binding:"required"`
	History    []domain.ChatMessage `json:"history"`
	FocusIndex int                  `json:"focusIndex"`
}

func briefingPayload(entry *domain.CachedBriefing) gin.H {
	return gin.H{
		"briefing":  entry.Data,
		"timestamp": entry.Timestamp,
		"expiresAt": entry.ExpiresAt,
		"age":       cache.Age(*entry, time.Now()),
	}
}

// GetBriefing godoc
// @Summary      Get the current market briefing
// @Description  Returns the cached briefing, synthesizing a fresh one on a cache miss
// @Tags         briefing
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      429  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/briefing [get]
func (h *Handler) GetBriefing(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-briefing")
	defer span.End()

	entry, err := h.briefings.Get(ctx, clientID(c), false, "")
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, briefingPayload(entry))
}

// RefreshBriefing godoc
// @Summary      Force-regenerate the briefing
// @Description  Bypasses the cache, subject to a per-client cooldown unless the admin token is presented
// @Tags         briefing
// @Produce      json
// @Param        X-Admin-Token  header  string  false  "Admin token to skip the cooldown"
// @Success      200  {object}  map[string]interface{}
// @Failure      429  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Router       /api/briefing/refresh [post]
func (h *Handler) RefreshBriefing(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refresh-briefing")
	defer span.End()

	entry, err := h.briefings.Get(ctx, clientID(c), true, c.GetHeader("X-Admin-Token"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, briefingPayload(entry))
}

// FollowUp godoc
// @Summary      Ask a follow-up question about the current briefing
// @Description  Answers in prose against the cached briefing; never triggers a new synthesis
// @Tags         briefing
// @Accept       json
// @Produce      json
// @Param        request  body  followUpRequest  true  "Question, optional history, optional bullet focus index"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      429  {object}  map[string]interface{}
// @Router       /api/followup [post]
func (h *Handler) FollowUp(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.follow-up")
	defer span.End()

	var req followUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	span.SetAttributes(attribute.Int("focus_index", req.FocusIndex))

	answer, err := h.briefings.FollowUp(ctx, clientID(c), req.Question, req.History, req.FocusIndex)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// GenerateReport godoc
// @Summary      Generate a long-form market report
// @Description  Produces a fresh narrative report; charged against the daily budget
// @Tags         briefing
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      429  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Router       /api/report [post]
func (h *Handler) GenerateReport(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.generate-report")
	defer span.End()

	report, err := h.briefings.Report(ctx, clientID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// RecentBriefings godoc
// @Summary      List recently generated briefings
// @Description  Returns archived briefings, newest first
// @Tags         briefing
// @Produce      json
// @Param        limit  query  int  false  "Number of briefings (default 10, max 50)"  default(10)
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/briefings/recent [get]
func (h *Handler) RecentBriefings(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "briefing history unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.recent-briefings")
	defer span.End()

	limit := 10
	if n, ok := intQuery(c, "limit"); ok && n > 0 && n <= 50 {
		limit = n
	}

	briefings, err := h.history.ListRecent(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"briefings": briefings})
}
