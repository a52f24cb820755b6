package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CronRefresh godoc
// @Summary      Scheduled briefing refresh
// @Description  Regenerates the briefing without client-facing gates; authenticated by the cron secret
// @Tags         cron
// @Produce      json
// @Param        X-Cron-Secret  header  string  true  "Shared cron secret"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/cron/refresh [post]
func (h *Handler) CronRefresh(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.cron-refresh")
	defer span.End()

	entry, err := h.briefings.RefreshForSchedule(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, briefingPayload(entry))
}
