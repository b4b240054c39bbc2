package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// CycleTrigger requests an immediate oracle resolution cycle. The trigger is
// asynchronous; the cycle runs on the engine's own goroutine.
type CycleTrigger interface {
	Trigger()
}

// OracleHandler serves oracle control and inspection endpoints.
type OracleHandler struct {
	engine CycleTrigger
	source domain.MarketSource
	logger *slog.Logger
}

// NewOracleHandler creates an OracleHandler. engine may be nil when the
// process does not run the consensus engine (server-only mode).
func NewOracleHandler(engine CycleTrigger, source domain.MarketSource, logger *slog.Logger) *OracleHandler {
	return &OracleHandler{
		engine: engine,
		source: source,
		logger: logger,
	}
}

// TriggerCheck schedules an immediate pending-market check.
// POST /api/oracle/check
func (h *OracleHandler) TriggerCheck(w http.ResponseWriter, r *http.Request) {
	if h.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "oracle engine not running in this process")
		return
	}

	h.engine.Trigger()
	h.logger.InfoContext(r.Context(), "handler: oracle cycle triggered")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// overdueResponse lists markets awaiting resolution.
type overdueResponse struct {
	Markets []marketResponse `json:"markets"`
	Cutoff  time.Time        `json:"cutoff"`
}

// ListOverdue returns markets whose event started before the cutoff and that
// still have no result. The cutoff defaults to now; the grace period is the
// engine's concern, not this endpoint's.
// GET /api/oracle/overdue
func (h *OracleHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().UTC()
	if v := r.URL.Query().Get("before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "before must be RFC3339")
			return
		}
		cutoff = t
	}

	markets, err := h.source.ListOverdue(r.Context(), cutoff)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list overdue failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list overdue markets")
		return
	}

	out := make([]marketResponse, 0, len(markets))
	for _, m := range markets {
		out = append(out, toMarketResponse(m))
	}
	writeJSON(w, http.StatusOK, overdueResponse{Markets: out, Cutoff: cutoff})
}
