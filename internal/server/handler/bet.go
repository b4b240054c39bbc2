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

// BetLedger defines the betting and payout operations the handler requires
// from the pool ledger.
type BetLedger interface {
	PlaceBet(ctx context.Context, owner string, marketID int64, outcome uint8, amount domain.Micros) (domain.Bet, error)
	GetBet(ctx context.Context, betID int64) (domain.Bet, error)
	ClaimWinnings(ctx context.Context, caller string, betID int64) (domain.Micros, error)
	Withdraw(ctx context.Context, caller string) (domain.Micros, error)
	Balance(ctx context.Context, owner string) domain.Micros
}

// BetHandler serves bet placement, claiming and balance endpoints.
type BetHandler struct {
	ledger BetLedger
	logger *slog.Logger
}

// NewBetHandler creates a BetHandler with the given ledger and logger.
func NewBetHandler(ledger BetLedger, logger *slog.Logger) *BetHandler {
	return &BetHandler{
		ledger: ledger,
		logger: logger,
	}
}

// betResponse is the JSON shape of a bet. Amounts are micros.
type betResponse struct {
	ID        int64      `json:"id"`
	Owner     string     `json:"owner"`
	MarketID  int64      `json:"market_id"`
	Outcome   uint8      `json:"outcome"`
	Amount    int64      `json:"amount"`
	Claimed   bool       `json:"claimed"`
	Refunded  bool       `json:"refunded"`
	PlacedAt  time.Time  `json:"placed_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

func toBetResponse(b domain.Bet) betResponse {
	return betResponse{
		ID:        b.ID,
		Owner:     b.Owner,
		MarketID:  b.MarketID,
		Outcome:   b.Outcome,
		Amount:    int64(b.Amount),
		Claimed:   b.Claimed,
		Refunded:  b.Refunded,
		PlacedAt:  b.PlacedAt,
		SettledAt: b.SettledAt,
	}
}

// placeBetRequest is the JSON body for POST /api/bets.
type placeBetRequest struct {
	Owner    string `json:"owner"`
	MarketID int64  `json:"market_id"`
	Outcome  uint8  `json:"outcome"`
	Amount   int64  `json:"amount"` // micros
}

// PlaceBet stakes an amount on a market outcome.
// POST /api/bets
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}

	bet, err := h.ledger.PlaceBet(r.Context(), req.Owner, req.MarketID, req.Outcome, domain.Micros(req.Amount))
	if err != nil {
		status, msg := betErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "handler: place bet failed",
				slog.Int64("market_id", req.MarketID),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusCreated, toBetResponse(bet))
}

// GetBet returns a single bet by its ID.
// GET /api/bets/{id}
func (h *BetHandler) GetBet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	bet, err := h.ledger.GetBet(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bet not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get bet failed",
			slog.Int64("bet_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get bet")
		return
	}

	writeJSON(w, http.StatusOK, toBetResponse(bet))
}

// claimRequest identifies the caller for claim and withdraw operations.
type claimRequest struct {
	Owner string `json:"owner"`
}

// claimResponse reports the amount credited or withdrawn, in micros.
type claimResponse struct {
	Amount int64 `json:"amount"`
}

// ClaimWinnings credits the payout of a winning or refunded bet to the
// owner's balance.
// POST /api/bets/{id}/claim
func (h *BetHandler) ClaimWinnings(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}

	amount, err := h.ledger.ClaimWinnings(r.Context(), req.Owner, id)
	if err != nil {
		status, msg := betErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "handler: claim failed",
				slog.Int64("bet_id", id),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, claimResponse{Amount: int64(amount)})
}

// Withdraw zeroes the owner's balance and reports the withdrawn amount.
// POST /api/balances/withdraw
func (h *BetHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Owner == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}

	amount, err := h.ledger.Withdraw(r.Context(), req.Owner)
	if err != nil {
		status, msg := betErrorStatus(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, claimResponse{Amount: int64(amount)})
}

// balanceResponse reports an owner's claimable balance in micros.
type balanceResponse struct {
	Owner   string `json:"owner"`
	Balance int64  `json:"balance"`
}

// GetBalance returns the claimable balance of an account.
// GET /api/balances/{owner}
func (h *BetHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	owner := pathParam(r, "owner")
	if owner == "" {
		writeError(w, http.StatusBadRequest, "missing owner")
		return
	}

	balance := h.ledger.Balance(r.Context(), owner)
	writeJSON(w, http.StatusOK, balanceResponse{Owner: owner, Balance: int64(balance)})
}

// betErrorStatus maps ledger errors to HTTP status codes. Validation errors
// become 400, ownership errors 403, lifecycle conflicts 409.
func betErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidOutcome),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrMarketNotOpen),
		errors.Is(err, domain.ErrInvalidMarketState),
		errors.Is(err, domain.ErrAlreadySettled),
		errors.Is(err, domain.ErrAlreadyVoided),
		errors.Is(err, domain.ErrBetLost),
		errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrAlreadyRefunded):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
