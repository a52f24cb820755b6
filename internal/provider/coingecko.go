package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"whats-up/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
	marketsPageSize  = 250
	topMoversCount   = 5
)

// stablecoinIDs are pegged assets that never represent genuine market
// movement and would pollute the gainers/losers tiers.
var stablecoinIDs = map[string]bool{
	"tether":            true,
	"usd-coin":          true,
	"dai":               true,
	"binance-usd":       true,
	"true-usd":          true,
	"first-digital-usd": true,
	"frax":              true,
	"usdd":              true,
	"paypal-usd":        true,
	"gemini-dollar":     true,
	"ethena-usde":       true,
	"paxos-standard":    true,
	"liquity-usd":       true,
	"usds":              true,
}

// wrappedIDs are wrapped or liquid-staking derivatives whose moves mirror
// their underlying asset.
var wrappedIDs = map[string]bool{
	"wrapped-bitcoin":          true,
	"weth":                     true,
	"wrapped-steth":            true,
	"staked-ether":             true,
	"coinbase-wrapped-btc":     true,
	"rocket-pool-eth":          true,
	"wrapped-eeth":             true,
	"kelp-dao-restaked-eth":    true,
	"renzo-restaked-eth":       true,
	"mantle-staked-ether":      true,
	"wbnb":                     true,
	"wrapped-avax":             true,
	"bridged-wrapped-ether":    true,
	"jito-staked-sol":          true,
	"marinade-staked-sol":      true,
	"lido-staked-matic":        true,
	"binance-staked-sol":       true,
	"wrapped-beacon-eth":       true,
	"solv-protocol-solvbtc":    true,
	"lombard-staked-btc":       true,
	"bridged-usdc-polygon-pos": true,
	"arbitrum-bridged-wbtc":    true,
	"l2-standard-bridged-weth": true,
}

// IsExcludedCoin reports whether a CoinGecko id is on either denylist.
func IsExcludedCoin(id string) bool {
	return stablecoinIDs[id] || wrappedIDs[id]
}

// CoinGeckoProvider fetches spot prices and 24h/7d changes from the
// CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer, baseURL string) *CoinGeckoProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = coingeckoBaseURL
	}
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

type marketRecord struct {
	ID            string   `json:"id"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	CurrentPrice  float64  `json:"current_price"`
	MarketCapRank int      `json:"market_cap_rank"`
	Change24h     *float64 `json:"price_change_percentage_24h_in_currency"`
	Change7d      *float64 `json:"price_change_percentage_7d_in_currency"`
}

// FetchUniverse fetches the top `size` coins by market-cap rank with
// stablecoins and wrapped/staking derivatives filtered out.
func (p *CoinGeckoProvider) FetchUniverse(ctx context.Context, size int) ([]domain.CoinSnapshot, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-universe")
	defer span.End()

	if !domain.IsTierSize(size) {
		return nil, fmt.Errorf("unsupported universe size: %d", size)
	}

	var coins []domain.CoinSnapshot
	// Denylisted coins occupy top ranks, so fetch pages until the filtered
	// universe reaches the requested size.
	for page := 1; len(coins) < size && page <= 3; page++ {
		url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=%d&price_change_percentage=24h,7d",
			p.baseURL, marketsPageSize, page)
		records, err := p.fetchMarkets(ctx, url)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			break
		}
		for _, rec := range records {
			if IsExcludedCoin(rec.ID) {
				continue
			}
			coins = append(coins, toSnapshot(rec))
			if len(coins) == size {
				break
			}
		}
	}

	return coins, nil
}

// FetchSelected fetches snapshots for an explicit set of CoinGecko ids.
// No denylist filtering: the caller asked for these coins by name.
func (p *CoinGeckoProvider) FetchSelected(ctx context.Context, ids []string) ([]domain.CoinSnapshot, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-selected")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s&order=market_cap_desc&per_page=%d&page=1&price_change_percentage=24h,7d",
		p.baseURL, strings.Join(ids, ","), len(ids))
	records, err := p.fetchMarkets(ctx, url)
	if err != nil {
		return nil, err
	}

	coins := make([]domain.CoinSnapshot, 0, len(records))
	for _, rec := range records {
		coins = append(coins, toSnapshot(rec))
	}
	return coins, nil
}

func (p *CoinGeckoProvider) fetchMarkets(ctx context.Context, url string) ([]marketRecord, error) {
	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	var records []marketRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parse markets response: %w", err)
	}
	return records, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Provider: "coingecko", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &domain.UpstreamError{Provider: "coingecko", Status: resp.StatusCode, Message: string(body)}
	}

	return io.ReadAll(resp.Body)
}

func toSnapshot(rec marketRecord) domain.CoinSnapshot {
	snap := domain.CoinSnapshot{
		ID:            rec.ID,
		Symbol:        strings.ToUpper(rec.Symbol),
		Name:          rec.Name,
		PriceUSD:      rec.CurrentPrice,
		MarketCapRank: rec.MarketCapRank,
	}
	if rec.Change24h != nil {
		snap.Change24hPct = *rec.Change24h
	}
	if rec.Change7d != nil {
		snap.Change7dPct = *rec.Change7d
	}
	return snap
}

// DeriveTopMovers picks the five biggest gainers (descending) and five worst
// losers (most negative first) by 24h change from one universe.
func DeriveTopMovers(size int, coins []domain.CoinSnapshot) domain.TopMoversTier {
	sorted := append([]domain.CoinSnapshot(nil), coins...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Change24hPct > sorted[j].Change24hPct
	})

	tier := domain.TopMoversTier{Size: size}
	for _, c := range sorted {
		if c.Change24hPct <= 0 || len(tier.Gainers) == topMoversCount {
			break
		}
		tier.Gainers = append(tier.Gainers, c)
	}
	for i := len(sorted) - 1; i >= 0 && len(tier.Losers) < topMoversCount; i-- {
		if sorted[i].Change24hPct >= 0 {
			break
		}
		tier.Losers = append(tier.Losers, sorted[i])
	}
	return tier
}
