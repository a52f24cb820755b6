package handler

import (
	"net/http"
	"strconv"
	"strings"

	"whats-up/internal/domain"
	"whats-up/internal/provider"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

func intQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetPrices godoc
// @Summary      Get current prices
// @Description  Returns live snapshots for the headline assets, or for the requested CoinGecko ids
// @Tags         prices
// @Produce      json
// @Param        ids  query  string  false  "Comma-separated CoinGecko ids"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Router       /api/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	ids := domain.HeadlineCoins
	if raw := c.Query("ids"); raw != "" {
		ids = nil
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		ids = domain.HeadlineCoins
	}
	span.SetAttributes(attribute.Int("ids", len(ids)))

	coins, err := h.prices.FetchSelected(ctx, ids)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"prices": coins})
}

// GetMovers godoc
// @Summary      Get top gainers and losers
// @Description  Returns the top movers within the top-N coins by market cap
// @Tags         prices
// @Produce      json
// @Param        size  query  int  false  "Universe size (50, 100, 200, or 300)"  default(100)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/movers [get]
func (h *Handler) GetMovers(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-movers")
	defer span.End()

	size := 100
	if n, ok := intQuery(c, "size"); ok {
		size = n
	}
	if !domain.IsTierSize(size) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           "unsupported universe size: " + strconv.Itoa(size),
			"supported_sizes": domain.TierSizes,
		})
		return
	}
	span.SetAttributes(attribute.Int("size", size))

	coins, err := h.prices.FetchUniverse(ctx, size)
	if err != nil {
		writeError(c, err)
		return
	}

	tier := provider.DeriveTopMovers(size, coins)
	c.JSON(http.StatusOK, gin.H{
		"size":    size,
		"gainers": tier.Gainers,
		"losers":  tier.Losers,
	})
}
