package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// BetStore implements domain.BetStore using PostgreSQL.
type BetStore struct {
	pool *pgxpool.Pool
}

// NewBetStore creates a new BetStore backed by the given connection pool.
func NewBetStore(pool *pgxpool.Pool) *BetStore {
	return &BetStore{pool: pool}
}

const betColumns = `id, owner, market_id, outcome, amount, claimed, refunded, placed_at, settled_at`

// Upsert inserts or updates a bet row. Claimed and refunded are the only
// fields that change after insert.
func (s *BetStore) Upsert(ctx context.Context, b domain.Bet) error {
	const query = `
		INSERT INTO bets (` + betColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			claimed = EXCLUDED.claimed,
			refunded = EXCLUDED.refunded,
			settled_at = EXCLUDED.settled_at`

	_, err := s.pool.Exec(ctx, query,
		b.ID, b.Owner, b.MarketID, int16(b.Outcome), int64(b.Amount),
		b.Claimed, b.Refunded, b.PlacedAt, b.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert bet %d: %w", b.ID, err)
	}
	return nil
}

// GetByID returns a single bet by its ID.
func (s *BetStore) GetByID(ctx context.Context, id int64) (domain.Bet, error) {
	const query = `SELECT ` + betColumns + ` FROM bets WHERE id = $1`

	b, err := scanBet(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Bet{}, fmt.Errorf("postgres: bet %d: %w", id, domain.ErrNotFound)
		}
		return domain.Bet{}, fmt.Errorf("postgres: get bet %d: %w", id, err)
	}
	return b, nil
}

// ListByMarket returns all bets placed on the given market.
func (s *BetStore) ListByMarket(ctx context.Context, marketID int64, opts domain.ListOpts) ([]domain.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE market_id = $1 ORDER BY id`
	args := []any{marketID}
	query, args = appendPaging(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets for market %d: %w", marketID, err)
	}
	defer rows.Close()

	return collectBets(rows)
}

// ListByOwner returns all bets placed by the given owner, newest first.
func (s *BetStore) ListByOwner(ctx context.Context, owner string, opts domain.ListOpts) ([]domain.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE owner = $1 ORDER BY id DESC`
	args := []any{owner}
	query, args = appendPaging(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets for owner %s: %w", owner, err)
	}
	defer rows.Close()

	return collectBets(rows)
}

func appendPaging(query string, args []any, opts domain.ListOpts) (string, []any) {
	argIdx := len(args) + 1
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}

func scanBet(row pgx.Row) (domain.Bet, error) {
	var (
		b       domain.Bet
		outcome int16
		amount  int64
	)
	err := row.Scan(
		&b.ID, &b.Owner, &b.MarketID, &outcome, &amount,
		&b.Claimed, &b.Refunded, &b.PlacedAt, &b.SettledAt,
	)
	if err != nil {
		return domain.Bet{}, err
	}
	b.Outcome = uint8(outcome)
	b.Amount = domain.Micros(amount)
	return b, nil
}

func collectBets(rows pgx.Rows) ([]domain.Bet, error) {
	var bets []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: bet rows: %w", err)
	}
	return bets, nil
}

// Compile-time interface check.
var _ domain.BetStore = (*BetStore)(nil)
