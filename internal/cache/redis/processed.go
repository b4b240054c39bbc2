package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// processedSetKey holds the IDs of markets the oracle already settled.
const processedSetKey = "oracle:processed"

// ProcessedMarkets implements domain.ProcessedMarkets on a Redis set. Unlike
// a per-process map it survives restarts and is shared across replicas, but
// it remains a noise-reduction cache: the ledger's double-settlement guard
// is the actual safety boundary.
type ProcessedMarkets struct {
	rdb *redis.Client
}

// NewProcessedMarkets creates a ProcessedMarkets backed by the given Client.
func NewProcessedMarkets(c *Client) *ProcessedMarkets {
	return &ProcessedMarkets{rdb: c.Underlying()}
}

func (p *ProcessedMarkets) Contains(ctx context.Context, marketID int64) (bool, error) {
	ok, err := p.rdb.SIsMember(ctx, processedSetKey, strconv.FormatInt(marketID, 10)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: processed contains %d: %w", marketID, err)
	}
	return ok, nil
}

func (p *ProcessedMarkets) Add(ctx context.Context, marketID int64) error {
	if err := p.rdb.SAdd(ctx, processedSetKey, strconv.FormatInt(marketID, 10)).Err(); err != nil {
		return fmt.Errorf("redis: processed add %d: %w", marketID, err)
	}
	return nil
}

func (p *ProcessedMarkets) Len(ctx context.Context) (int64, error) {
	n, err := p.rdb.SCard(ctx, processedSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: processed len: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.ProcessedMarkets = (*ProcessedMarkets)(nil)
