package domain

import (
	"context"
	"time"
)

// MarketSource is the read side of the oracle<->ledger transport: discovery
// of markets that are overdue for resolution.
type MarketSource interface {
	// ListOverdue returns Active markets with no result whose event started
	// at or before the given cutoff (start time + grace period already
	// applied by the caller).
	ListOverdue(ctx context.Context, startedBefore time.Time) ([]Market, error)

	// MarketCount returns the total number of markets the ledger knows about.
	MarketCount(ctx context.Context) (int64, error)
}

// SettlementSubmitter is the write side of the oracle<->ledger transport.
// Implementations must be idempotence-checked: a second settlement of the
// same market fails with ErrAlreadySettled and changes nothing.
type SettlementSubmitter interface {
	// SettleMarket records the winning outcome and transitions the market to
	// Settled, unlocking winner payouts.
	SettleMarket(ctx context.Context, marketID int64, winningOutcome uint8) error

	// VoidMarket cancels the market and makes every bet refund-eligible for
	// its full stake.
	VoidMarket(ctx context.Context, marketID int64) error
}
