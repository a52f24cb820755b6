package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"whats-up/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type priceFetcherStub struct {
	universe []domain.CoinSnapshot
	selected []domain.CoinSnapshot
	err      error
	gotSize  int
	gotIDs   []string
}

func (s *priceFetcherStub) FetchUniverse(ctx context.Context, size int) ([]domain.CoinSnapshot, error) {
	s.gotSize = size
	return s.universe, s.err
}

func (s *priceFetcherStub) FetchSelected(ctx context.Context, ids []string) ([]domain.CoinSnapshot, error) {
	s.gotIDs = ids
	return s.selected, s.err
}

func newPriceRouter(stub *priceFetcherStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tracer := trace.NewNoopTracerProvider().Tracer("handler-test")
	h := New(tracer, nil, stub, nil, "")

	r := gin.New()
	r.GET("/api/prices", h.GetPrices)
	r.GET("/api/movers", h.GetMovers)
	return r
}

func TestGetPrices(t *testing.T) {
	stub := &priceFetcherStub{selected: []domain.CoinSnapshot{
		{ID: "bitcoin", Symbol: "BTC", PriceUSD: 93000},
	}}
	r := newPriceRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/prices", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Prices []domain.CoinSnapshot `json:"prices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(body.Prices) != 1 || body.Prices[0].Symbol != "BTC" {
		t.Fatalf("unexpected prices: %+v", body.Prices)
	}
	if len(stub.gotIDs) != len(domain.HeadlineCoins) {
		t.Errorf("expected headline coin ids by default, got %v", stub.gotIDs)
	}
}

func TestGetPricesWithExplicitIDs(t *testing.T) {
	stub := &priceFetcherStub{selected: []domain.CoinSnapshot{
		{ID: "dogecoin", Symbol: "DOGE", PriceUSD: 0.12},
	}}
	r := newPriceRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/prices?ids=dogecoin,%20chainlink,", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(stub.gotIDs) != 2 || stub.gotIDs[0] != "dogecoin" || stub.gotIDs[1] != "chainlink" {
		t.Errorf("expected trimmed ids [dogecoin chainlink], got %v", stub.gotIDs)
	}
}

func TestGetMoversRejectsUnsupportedSize(t *testing.T) {
	r := newPriceRouter(&priceFetcherStub{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/movers?size=77", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetMoversDerivesTiers(t *testing.T) {
	stub := &priceFetcherStub{universe: []domain.CoinSnapshot{
		{ID: "a", Change24hPct: 12.0},
		{ID: "b", Change24hPct: -8.0},
		{ID: "c", Change24hPct: 4.0},
		{ID: "d", Change24hPct: -1.0},
	}}
	r := newPriceRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/movers?size=50", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.gotSize != 50 {
		t.Errorf("expected universe size 50, got %d", stub.gotSize)
	}

	var body struct {
		Gainers []domain.CoinSnapshot `json:"gainers"`
		Losers  []domain.CoinSnapshot `json:"losers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(body.Gainers) != 2 || body.Gainers[0].ID != "a" {
		t.Errorf("unexpected gainers: %+v", body.Gainers)
	}
	if len(body.Losers) != 2 || body.Losers[0].ID != "b" {
		t.Errorf("unexpected losers: %+v", body.Losers)
	}
}

func TestGetMoversUpstreamError(t *testing.T) {
	stub := &priceFetcherStub{err: &domain.UpstreamError{Provider: "coingecko", Status: 429}}
	r := newPriceRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/movers?size=100", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
