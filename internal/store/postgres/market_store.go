package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketColumns = `id, home_team, away_team, league, start_time, state,
	outcomes_count, pool_0, pool_1, pool_2, result_set, winning_outcome,
	activation_deadline, created_at, updated_at`

// Upsert inserts or fully replaces a market row. The ledger's in-memory
// state is authoritative, so the row always reflects the latest snapshot.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) error {
	const query = `
		INSERT INTO markets (` + marketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			pool_0 = EXCLUDED.pool_0,
			pool_1 = EXCLUDED.pool_1,
			pool_2 = EXCLUDED.pool_2,
			result_set = EXCLUDED.result_set,
			winning_outcome = EXCLUDED.winning_outcome,
			updated_at = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		m.ID, m.HomeTeam, m.AwayTeam, m.League, m.StartTime, string(m.State),
		int16(m.OutcomesCount), int64(m.Pools[0]), int64(m.Pools[1]), int64(m.Pools[2]),
		m.ResultSet, int16(m.WinningOutcome), m.ActivationDeadline, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert market %d: %w", m.ID, err)
	}
	return nil
}

// GetByID returns a single market by its ID.
func (s *MarketStore) GetByID(ctx context.Context, id int64) (domain.Market, error) {
	const query = `SELECT ` + marketColumns + ` FROM markets WHERE id = $1`

	m, err := scanMarket(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, fmt.Errorf("postgres: market %d: %w", id, domain.ErrNotFound)
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %d: %w", id, err)
	}
	return m, nil
}

// ListByState returns markets in the given lifecycle state, newest first.
func (s *MarketStore) ListByState(ctx context.Context, state domain.MarketState, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE state = $1 ORDER BY id DESC`
	args := []any{string(state)}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets by state %s: %w", state, err)
	}
	defer rows.Close()

	return collectMarkets(rows)
}

// ListOverdue returns Active markets with no recorded result whose event
// started at or before the cutoff.
func (s *MarketStore) ListOverdue(ctx context.Context, startedBefore time.Time) ([]domain.Market, error) {
	const query = `
		SELECT ` + marketColumns + `
		FROM markets
		WHERE state = $1 AND result_set = FALSE AND start_time <= $2
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, string(domain.MarketStateActive), startedBefore)
	if err != nil {
		return nil, fmt.Errorf("postgres: list overdue markets: %w", err)
	}
	defer rows.Close()

	return collectMarkets(rows)
}

// Count returns the total number of markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM markets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

func scanMarket(row pgx.Row) (domain.Market, error) {
	var (
		m              domain.Market
		state          string
		outcomes       int16
		pool0          int64
		pool1          int64
		pool2          int64
		winningOutcome int16
	)
	err := row.Scan(
		&m.ID, &m.HomeTeam, &m.AwayTeam, &m.League, &m.StartTime, &state,
		&outcomes, &pool0, &pool1, &pool2, &m.ResultSet, &winningOutcome,
		&m.ActivationDeadline, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.State = domain.MarketState(state)
	m.OutcomesCount = uint8(outcomes)
	m.Pools = [domain.MaxOutcomes]domain.Micros{
		domain.Micros(pool0), domain.Micros(pool1), domain.Micros(pool2),
	}
	m.WinningOutcome = uint8(winningOutcome)
	return m, nil
}

func collectMarkets(rows pgx.Rows) ([]domain.Market, error) {
	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: market rows: %w", err)
	}
	return markets, nil
}

// Compile-time interface check.
var _ domain.MarketStore = (*MarketStore)(nil)
