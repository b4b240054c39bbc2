package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// MarketStore persists market state. The in-process ledger is authoritative;
// the store is a write-through journal used for recovery and reporting.
type MarketStore interface {
	Upsert(ctx context.Context, market Market) error
	GetByID(ctx context.Context, id int64) (Market, error)
	ListByState(ctx context.Context, state MarketState, opts ListOpts) ([]Market, error)
	ListOverdue(ctx context.Context, startedBefore time.Time) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// BetStore persists bets.
type BetStore interface {
	Upsert(ctx context.Context, bet Bet) error
	GetByID(ctx context.Context, id int64) (Bet, error)
	ListByMarket(ctx context.Context, marketID int64, opts ListOpts) ([]Bet, error)
	ListByOwner(ctx context.Context, owner string, opts ListOpts) ([]Bet, error)
}

// BalanceStore persists withdrawable account balances.
type BalanceStore interface {
	Set(ctx context.Context, owner string, balance Micros) error
	Get(ctx context.Context, owner string) (Micros, error)
	List(ctx context.Context, opts ListOpts) (map[string]Micros, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
