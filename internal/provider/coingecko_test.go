package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"whats-up/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, v any) *http.Response {
	data, _ := json.Marshal(v)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func fastLimiterProvider(t *testing.T, transport roundTripFunc) *CoinGeckoProvider {
	t.Helper()
	p := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"), "http://example")
	p.client = &http.Client{Transport: transport}
	p.limiter = NewRateLimiter(100, time.Millisecond)
	return p
}

func TestFetchSelected(t *testing.T) {
	t.Parallel()

	change := 1.5
	p := fastLimiterProvider(t, func(req *http.Request) (*http.Response, error) {
		if !strings.Contains(req.URL.Path, "/coins/markets") {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if ids := req.URL.Query().Get("ids"); ids != "bitcoin,ethereum" {
			t.Fatalf("unexpected ids param: %s", ids)
		}
		return jsonResponse(http.StatusOK, []marketRecord{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 93000, MarketCapRank: 1, Change24h: &change},
			{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 3200, MarketCapRank: 2},
		}), nil
	})

	coins, err := p.FetchSelected(context.Background(), []string{"bitcoin", "ethereum"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coins) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(coins))
	}
	if coins[0].Symbol != "BTC" || coins[0].PriceUSD != 93000 || coins[0].Change24hPct != 1.5 {
		t.Errorf("unexpected first snapshot: %+v", coins[0])
	}
	// Null 24h change from the API reads as zero.
	if coins[1].Change24hPct != 0 {
		t.Errorf("expected zero change for null field, got %f", coins[1].Change24hPct)
	}
}

func TestFetchUniverseFiltersDenylistAndPages(t *testing.T) {
	t.Parallel()

	// Page 1: 250 records, two denylisted; page 2 supplies the remainder.
	page1 := make([]marketRecord, 0, marketsPageSize)
	page1 = append(page1,
		marketRecord{ID: "tether", Symbol: "usdt"},
		marketRecord{ID: "wrapped-bitcoin", Symbol: "wbtc"},
	)
	for i := len(page1); i < marketsPageSize; i++ {
		page1 = append(page1, marketRecord{ID: fmt.Sprintf("coin-%d", i), Symbol: "c"})
	}
	page2 := make([]marketRecord, marketsPageSize)
	for i := range page2 {
		page2[i] = marketRecord{ID: fmt.Sprintf("coin-b-%d", i), Symbol: "c"}
	}

	var pagesRequested []string
	p := fastLimiterProvider(t, func(req *http.Request) (*http.Response, error) {
		page := req.URL.Query().Get("page")
		pagesRequested = append(pagesRequested, page)
		switch page {
		case "1":
			return jsonResponse(http.StatusOK, page1), nil
		case "2":
			return jsonResponse(http.StatusOK, page2), nil
		default:
			return jsonResponse(http.StatusOK, []marketRecord{}), nil
		}
	})

	coins, err := p.FetchUniverse(context.Background(), 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(coins) != 300 {
		t.Fatalf("expected 300 coins, got %d", len(coins))
	}
	for _, c := range coins {
		if IsExcludedCoin(c.ID) {
			t.Fatalf("denylisted coin leaked into universe: %s", c.ID)
		}
	}
	if len(pagesRequested) != 2 {
		t.Errorf("expected 2 pages requested, got %v", pagesRequested)
	}
}

func TestFetchUniverseRejectsUnsupportedSize(t *testing.T) {
	t.Parallel()

	p := fastLimiterProvider(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := p.FetchUniverse(context.Background(), 123); err == nil {
		t.Fatal("expected error for unsupported size")
	}
}

func TestDoRequestUpstreamError(t *testing.T) {
	t.Parallel()

	p := fastLimiterProvider(t, func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader("throttled")),
			Header:     make(http.Header),
		}, nil
	})

	_, err := p.FetchSelected(context.Background(), []string{"bitcoin"})
	var upstreamErr *domain.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.Status != http.StatusTooManyRequests || upstreamErr.Provider != "coingecko" {
		t.Errorf("unexpected error detail: %+v", upstreamErr)
	}
}

func TestDeriveTopMovers(t *testing.T) {
	t.Parallel()

	coins := make([]domain.CoinSnapshot, 0, 12)
	for i, change := range []float64{8, -2, 3, 0, 12, -11, 1, -0.5, 6, 2, 9, -4} {
		coins = append(coins, domain.CoinSnapshot{ID: "coin-" + strconv.Itoa(i), Change24hPct: change})
	}

	tier := DeriveTopMovers(50, coins)
	if tier.Size != 50 {
		t.Errorf("unexpected size label: %d", tier.Size)
	}

	wantGainers := []float64{12, 9, 8, 6, 3}
	if len(tier.Gainers) != len(wantGainers) {
		t.Fatalf("expected %d gainers, got %d", len(wantGainers), len(tier.Gainers))
	}
	for i, want := range wantGainers {
		if tier.Gainers[i].Change24hPct != want {
			t.Errorf("gainer %d: expected %+.1f, got %+.1f", i, want, tier.Gainers[i].Change24hPct)
		}
	}

	wantLosers := []float64{-11, -4, -2, -0.5}
	if len(tier.Losers) != len(wantLosers) {
		t.Fatalf("expected %d losers, got %d", len(wantLosers), len(tier.Losers))
	}
	for i, want := range wantLosers {
		if tier.Losers[i].Change24hPct != want {
			t.Errorf("loser %d: expected %+.1f, got %+.1f", i, want, tier.Losers[i].Change24hPct)
		}
	}
}

func TestDeriveTopMoversAllPositive(t *testing.T) {
	t.Parallel()

	coins := []domain.CoinSnapshot{
		{ID: "a", Change24hPct: 5},
		{ID: "b", Change24hPct: 2},
	}
	tier := DeriveTopMovers(50, coins)
	if len(tier.Losers) != 0 {
		t.Errorf("expected no losers in an all-green universe, got %+v", tier.Losers)
	}
	if len(tier.Gainers) != 2 {
		t.Errorf("expected 2 gainers, got %d", len(tier.Gainers))
	}
}
