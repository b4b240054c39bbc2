package ledger

import (
	"context"
	"time"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// OracleHandle exposes the ledger to the consensus engine with the oracle
// identity bound in, so the engine never carries credentials of its own.
type OracleHandle struct {
	l *Ledger
}

var (
	_ domain.MarketSource        = (*OracleHandle)(nil)
	_ domain.SettlementSubmitter = (*OracleHandle)(nil)
)

// OracleHandle returns the transport handle used by the consensus engine.
func (l *Ledger) OracleHandle() *OracleHandle {
	return &OracleHandle{l: l}
}

func (h *OracleHandle) ListOverdue(ctx context.Context, startedBefore time.Time) ([]domain.Market, error) {
	return h.l.ListOverdue(ctx, startedBefore)
}

func (h *OracleHandle) MarketCount(ctx context.Context) (int64, error) {
	return h.l.MarketCount(ctx)
}

func (h *OracleHandle) SettleMarket(ctx context.Context, marketID int64, winningOutcome uint8) error {
	return h.l.SettleMarket(ctx, h.l.cfg.OracleAddr, marketID, winningOutcome)
}

func (h *OracleHandle) VoidMarket(ctx context.Context, marketID int64) error {
	return h.l.VoidMarket(ctx, h.l.cfg.OracleAddr, marketID)
}
