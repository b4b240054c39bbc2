package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// MarketLedger defines the market operations the handler requires from the
// pool ledger. It is declared locally so the handler package does not depend
// on the concrete ledger implementation.
type MarketLedger interface {
	CreateMarket(ctx context.Context, home, away, league string, startTime time.Time, outcomesCount uint8) (domain.Market, error)
	GetMarket(ctx context.Context, marketID int64) (domain.Market, error)
	Odds(ctx context.Context, marketID int64) ([]int64, error)
	MarketCount(ctx context.Context) (int64, error)
}

// MarketHandler serves market-related HTTP endpoints.
type MarketHandler struct {
	ledger MarketLedger
	store  domain.MarketStore // nil disables the list endpoint's backing query
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given ledger and store.
func NewMarketHandler(ledger MarketLedger, store domain.MarketStore, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		ledger: ledger,
		store:  store,
		logger: logger,
	}
}

// marketResponse is the JSON shape of a market. Monetary values are micros.
type marketResponse struct {
	ID             int64     `json:"id"`
	HomeTeam       string    `json:"home_team"`
	AwayTeam       string    `json:"away_team"`
	League         string    `json:"league,omitempty"`
	StartTime      time.Time `json:"start_time"`
	State          string    `json:"state"`
	OutcomesCount  uint8     `json:"outcomes_count"`
	Pools          []int64   `json:"pools"`
	TotalPool      int64     `json:"total_pool"`
	ResultSet      bool      `json:"result_set"`
	WinningOutcome *uint8    `json:"winning_outcome,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toMarketResponse(m domain.Market) marketResponse {
	pools := make([]int64, m.OutcomesCount)
	for i := range pools {
		pools[i] = int64(m.Pools[i])
	}
	resp := marketResponse{
		ID:            m.ID,
		HomeTeam:      m.HomeTeam,
		AwayTeam:      m.AwayTeam,
		League:        m.League,
		StartTime:     m.StartTime,
		State:         string(m.State),
		OutcomesCount: m.OutcomesCount,
		Pools:         pools,
		TotalPool:     int64(m.TotalPool()),
		ResultSet:     m.ResultSet,
		CreatedAt:     m.CreatedAt,
	}
	if m.ResultSet {
		w := m.WinningOutcome
		resp.WinningOutcome = &w
	}
	return resp
}

// createMarketRequest is the JSON body for POST /api/markets.
type createMarketRequest struct {
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	League        string    `json:"league"`
	StartTime     time.Time `json:"start_time"`
	OutcomesCount uint8     `json:"outcomes_count"`
}

// CreateMarket opens a new betting market.
// POST /api/markets
func (h *MarketHandler) CreateMarket(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	m, err := h.ledger.CreateMarket(r.Context(), req.HomeTeam, req.AwayTeam, req.League, req.StartTime, req.OutcomesCount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidOutcome) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: create market failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create market")
		return
	}

	writeJSON(w, http.StatusCreated, toMarketResponse(m))
}

// listMarketsResponse wraps the list endpoint output with metadata.
type listMarketsResponse struct {
	Markets []marketResponse `json:"markets"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// ListMarkets returns markets in a given state with pagination.
// GET /api/markets?state=active&limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "market listing requires the journal store")
		return
	}

	state := domain.MarketState(r.URL.Query().Get("state"))
	if state == "" {
		state = domain.MarketStateActive
	}
	opts := parseListOpts(r)

	markets, err := h.store.ListByState(r.Context(), state, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	total, err := h.ledger.MarketCount(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count markets")
		return
	}

	out := make([]marketResponse, 0, len(markets))
	for _, m := range markets {
		out = append(out, toMarketResponse(m))
	}
	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: out,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns a single market by its ID.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	m, err := h.ledger.GetMarket(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get market failed",
			slog.Int64("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get market")
		return
	}

	writeJSON(w, http.StatusOK, toMarketResponse(m))
}

// oddsResponse carries the implied decimal odds, scaled by 100.
type oddsResponse struct {
	MarketID int64   `json:"market_id"`
	Odds     []int64 `json:"odds_x100"`
}

// GetOdds returns the current implied odds per outcome.
// GET /api/markets/{id}/odds
func (h *MarketHandler) GetOdds(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	odds, err := h.ledger.Odds(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get odds failed",
			slog.Int64("market_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute odds")
		return
	}

	writeJSON(w, http.StatusOK, oddsResponse{MarketID: id, Odds: odds})
}
