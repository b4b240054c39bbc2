package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// BalanceStore implements domain.BalanceStore using PostgreSQL.
type BalanceStore struct {
	pool *pgxpool.Pool
}

// NewBalanceStore creates a new BalanceStore backed by the given connection pool.
func NewBalanceStore(pool *pgxpool.Pool) *BalanceStore {
	return &BalanceStore{pool: pool}
}

// Set writes the owner's current withdrawable balance.
func (s *BalanceStore) Set(ctx context.Context, owner string, balance domain.Micros) error {
	const query = `
		INSERT INTO balances (owner, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner) DO UPDATE SET
			balance = EXCLUDED.balance,
			updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, owner, int64(balance)); err != nil {
		return fmt.Errorf("postgres: set balance for %s: %w", owner, err)
	}
	return nil
}

// Get returns the owner's balance. An owner with no row has a zero balance.
func (s *BalanceStore) Get(ctx context.Context, owner string) (domain.Micros, error) {
	var balance int64
	err := s.pool.QueryRow(ctx, `SELECT balance FROM balances WHERE owner = $1`, owner).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("postgres: get balance for %s: %w", owner, err)
	}
	return domain.Micros(balance), nil
}

// List returns all non-zero balances keyed by owner.
func (s *BalanceStore) List(ctx context.Context, opts domain.ListOpts) (map[string]domain.Micros, error) {
	query := `SELECT owner, balance FROM balances WHERE balance <> 0 ORDER BY owner`
	args := []any{}
	query, args = appendPaging(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]domain.Micros)
	for rows.Next() {
		var (
			owner   string
			balance int64
		)
		if err := rows.Scan(&owner, &balance); err != nil {
			return nil, fmt.Errorf("postgres: scan balance: %w", err)
		}
		balances[owner] = domain.Micros(balance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: balance rows: %w", err)
	}
	return balances, nil
}

// Compile-time interface check.
var _ domain.BalanceStore = (*BalanceStore)(nil)
