package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/paribet/internal/domain"
	"github.com/alanyoungcy/paribet/internal/ledger"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestMux wires handlers against an in-memory ledger the way server.go
// does, so tests exercise real routing including path parameters.
func newTestMux(t *testing.T) (*http.ServeMux, *ledger.Ledger) {
	t.Helper()
	l := ledger.New(ledger.Config{
		FeeBps:     200,
		OracleAddr: "oracle",
		HouseAddr:  "house",
	}, ledger.Journal{}, nil, testLogger)
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return base })

	markets := NewMarketHandler(l, nil, testLogger)
	bets := NewBetHandler(l, testLogger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/markets", markets.CreateMarket)
	mux.HandleFunc("GET /api/markets/{id}", markets.GetMarket)
	mux.HandleFunc("GET /api/markets/{id}/odds", markets.GetOdds)
	mux.HandleFunc("POST /api/bets", bets.PlaceBet)
	mux.HandleFunc("GET /api/bets/{id}", bets.GetBet)
	mux.HandleFunc("GET /api/balances/{owner}", bets.GetBalance)
	return mux, l
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetMarket(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/markets", `{
		"home_team": "Arsenal",
		"away_team": "Chelsea",
		"league": "EPL",
		"start_time": "2026-03-14T15:00:00Z",
		"outcomes_count": 3
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}

	var created marketResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.State != string(domain.MarketStateActive) {
		t.Errorf("state = %q, want active", created.State)
	}
	if len(created.Pools) != 3 {
		t.Errorf("pools = %v, want 3 entries", created.Pools)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/markets/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/markets/99", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing market status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, mux, http.MethodGet, "/api/markets/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestCreateMarketValidationErrors(t *testing.T) {
	mux, _ := newTestMux(t)

	// Start time in the past.
	rec := doJSON(t, mux, http.MethodPost, "/api/markets", `{
		"home_team": "Arsenal",
		"away_team": "Chelsea",
		"start_time": "2026-03-14T10:00:00Z",
		"outcomes_count": 3
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("past start status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/markets", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}

func TestPlaceBetAndOdds(t *testing.T) {
	mux, l := newTestMux(t)

	_, err := l.CreateMarket(context.Background(), "Arsenal", "Chelsea", "EPL",
		time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC), 2)
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}

	rec := doJSON(t, mux, http.MethodPost, "/api/bets", `{
		"owner": "alice",
		"market_id": 1,
		"outcome": 0,
		"amount": 100000000
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("place bet status = %d, body %s", rec.Code, rec.Body)
	}
	doJSON(t, mux, http.MethodPost, "/api/bets", `{
		"owner": "bob",
		"market_id": 1,
		"outcome": 1,
		"amount": 100000000
	}`)

	rec = doJSON(t, mux, http.MethodGet, "/api/markets/1/odds", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("odds status = %d", rec.Code)
	}
	var odds oddsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &odds); err != nil {
		t.Fatalf("decode odds: %v", err)
	}
	// Even pools on two outcomes imply 2.00 on each side.
	if len(odds.Odds) != 2 || odds.Odds[0] != 200 || odds.Odds[1] != 200 {
		t.Errorf("odds = %v, want [200 200]", odds.Odds)
	}

	// Invalid outcome for a two-way market.
	rec = doJSON(t, mux, http.MethodPost, "/api/bets", `{
		"owner": "carol",
		"market_id": 1,
		"outcome": 2,
		"amount": 1000000
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid outcome status = %d, want 400", rec.Code)
	}

	// Missing owner.
	rec = doJSON(t, mux, http.MethodPost, "/api/bets", `{
		"market_id": 1,
		"outcome": 0,
		"amount": 1000000
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing owner status = %d, want 400", rec.Code)
	}
}

func TestGetBalance(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/balances/alice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("balance status = %d", rec.Code)
	}
	var bal balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &bal); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bal.Owner != "alice" || bal.Balance != 0 {
		t.Errorf("balance = %+v, want alice/0", bal)
	}
}
