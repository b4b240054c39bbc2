// Package oracle decides when a market's real-world event has a known
// outcome and drives the ledger to settlement. It never settles without a
// minimum number of independent agreeing providers, and never settles the
// same market twice.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/paribet/internal/domain"
	"github.com/alanyoungcy/paribet/internal/notify"
)

// cycleLockKey guards settlement cycles across process replicas.
const cycleLockKey = "oracle:cycle"

// SettlementRecord is the audit row archived for each market the engine
// acted on.
type SettlementRecord struct {
	MarketID int64                 `json:"market_id"`
	Action   string                `json:"action"` // "settled"
	Outcome  domain.SymbolicOutcome `json:"outcome"`
	Support  int                   `json:"support"`
	Votes    []domain.ProviderVote `json:"votes"`
	At       time.Time             `json:"at"`

	// Attestation is the oracle's signature over AttestationPayload,
	// present when the engine has a signing identity.
	Attestation string `json:"attestation,omitempty"`
}

// AttestationPayload is the canonical byte string the oracle signs for this
// record. Verifiers rebuild it from the archived fields and recover the
// signer address from Attestation.
func (r *SettlementRecord) AttestationPayload() []byte {
	return []byte(fmt.Sprintf("settlement:%d:%s:%d", r.MarketID, r.Outcome, r.At.Unix()))
}

// RecordArchiver persists settlement records to cold storage.
type RecordArchiver interface {
	ArchiveSettlements(ctx context.Context, records []SettlementRecord) error
}

// Attestor signs settlement records so archived history can be verified
// against the oracle's signing identity.
type Attestor interface {
	SignMessage(data []byte) (string, error)
}

// Config holds the engine's externally supplied parameters.
type Config struct {
	// RequiredConsensus is the minimum number of agreeing providers before
	// the engine settles.
	RequiredConsensus int

	// GracePeriod is how long after the scheduled start time a market must
	// wait before it is considered overdue for resolution.
	GracePeriod time.Duration

	// PollInterval is the spacing between scheduled cycles.
	PollInterval time.Duration

	// LockTTL bounds how long a crashed replica can hold the cycle lock.
	LockTTL time.Duration
}

// CycleStats summarizes one settlement cycle.
type CycleStats struct {
	Overdue     int
	Skipped     int
	Settled     int
	NoConsensus int
	Failed      int
}

// Engine is the consensus scheduler. Cycles are single-flight: a trigger
// arriving while a cycle is in flight is dropped, not queued.
type Engine struct {
	cfg       Config
	source    domain.MarketSource
	submitter domain.SettlementSubmitter
	providers []domain.ResultProvider
	processed domain.ProcessedMarkets
	locks     domain.LockManager
	archiver  RecordArchiver
	attestor  Attestor
	notifier  *notify.Notifier
	logger    *slog.Logger
	now       func() time.Time

	running atomic.Bool
	trigger chan struct{}
}

// New creates an Engine. processed, locks, archiver and notifier may be nil;
// the engine then relies solely on the ledger's own double-settlement guard.
func New(
	cfg Config,
	source domain.MarketSource,
	submitter domain.SettlementSubmitter,
	providers []domain.ResultProvider,
	processed domain.ProcessedMarkets,
	locks domain.LockManager,
	archiver RecordArchiver,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Engine {
	if cfg.RequiredConsensus < 1 {
		cfg.RequiredConsensus = 2
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 2 * time.Hour
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &Engine{
		cfg:       cfg,
		source:    source,
		submitter: submitter,
		providers: providers,
		processed: processed,
		locks:     locks,
		archiver:  archiver,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "oracle")),
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
	}
}

// SetClock overrides the time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SetAttestor installs a signing identity. Settlement records produced after
// this call carry an attestation signature.
func (e *Engine) SetAttestor(a Attestor) { e.attestor = a }

// Trigger requests a cycle outside the schedule, with identical semantics to
// a timer tick. Non-blocking; coalesces with an already pending trigger.
func (e *Engine) Trigger() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Run executes one cycle immediately, then loops on the poll interval until
// ctx is cancelled. Cycle errors are logged, never fatal.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.InfoContext(ctx, "oracle: engine starting",
		slog.Duration("poll_interval", e.cfg.PollInterval),
		slog.Duration("grace_period", e.cfg.GracePeriod),
		slog.Int("required_consensus", e.cfg.RequiredConsensus),
		slog.Int("providers", len(e.providers)),
	)

	e.runCycle(ctx)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.InfoContext(ctx, "oracle: engine stopped")
			return ctx.Err()
		case <-ticker.C:
			e.runCycle(ctx)
		case <-e.trigger:
			e.runCycle(ctx)
		}
	}
}

func (e *Engine) runCycle(ctx context.Context) {
	if _, err := e.CheckPendingMarkets(ctx); err != nil {
		e.logger.ErrorContext(ctx, "oracle: cycle failed", slog.String("error", err.Error()))
	}
}

// CheckPendingMarkets runs one settlement cycle: list overdue markets, seek
// provider consensus for each, settle the ones that reach it. If a previous
// cycle is still in flight the invocation is dropped entirely.
func (e *Engine) CheckPendingMarkets(ctx context.Context) (CycleStats, error) {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.WarnContext(ctx, "oracle: cycle already in flight, skipping")
		return CycleStats{}, nil
	}
	defer e.running.Store(false)

	if e.locks != nil {
		unlock, err := e.locks.Acquire(ctx, cycleLockKey, e.cfg.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				e.logger.WarnContext(ctx, "oracle: cycle lock held elsewhere, skipping")
				return CycleStats{}, nil
			}
			return CycleStats{}, fmt.Errorf("oracle: acquire cycle lock: %w", err)
		}
		defer unlock()
	}

	cutoff := e.now().Add(-e.cfg.GracePeriod)
	overdue, err := e.source.ListOverdue(ctx, cutoff)
	if err != nil {
		return CycleStats{}, fmt.Errorf("oracle: list overdue markets: %w", err)
	}

	stats := CycleStats{Overdue: len(overdue)}
	if len(overdue) == 0 {
		return stats, nil
	}

	e.logger.InfoContext(ctx, "oracle: cycle started", slog.Int("overdue", len(overdue)))

	var records []SettlementRecord
	for _, m := range overdue {
		if e.alreadyProcessed(ctx, m.ID) {
			stats.Skipped++
			continue
		}

		rec, err := e.resolveMarket(ctx, m)
		switch {
		case err != nil:
			// One market's failure never aborts the batch; the next cycle
			// retries because the market was not marked processed.
			stats.Failed++
			e.logger.ErrorContext(ctx, "oracle: market resolution failed",
				slog.Int64("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		case rec == nil:
			stats.NoConsensus++
		default:
			stats.Settled++
			records = append(records, *rec)
		}
	}

	if e.archiver != nil && len(records) > 0 {
		if err := e.archiver.ArchiveSettlements(ctx, records); err != nil {
			e.logger.WarnContext(ctx, "oracle: settlement archive failed",
				slog.String("error", err.Error()),
			)
		}
	}

	attrs := []slog.Attr{
		slog.Int("overdue", stats.Overdue),
		slog.Int("skipped", stats.Skipped),
		slog.Int("settled", stats.Settled),
		slog.Int("no_consensus", stats.NoConsensus),
		slog.Int("failed", stats.Failed),
	}
	if e.processed != nil {
		if n, err := e.processed.Len(ctx); err == nil {
			attrs = append(attrs, slog.Int64("processed_total", n))
		}
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "oracle: cycle finished", attrs...)
	return stats, nil
}

// alreadyProcessed consults the processed-market set. The set is a noise
// reduction cache, not a correctness boundary, so lookup errors count as
// "not processed" and the ledger's own guard decides.
func (e *Engine) alreadyProcessed(ctx context.Context, marketID int64) bool {
	if e.processed == nil {
		return false
	}
	seen, err := e.processed.Contains(ctx, marketID)
	if err != nil {
		e.logger.WarnContext(ctx, "oracle: processed-set lookup failed",
			slog.Int64("market_id", marketID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return seen
}

func (e *Engine) markProcessed(ctx context.Context, marketID int64) {
	if e.processed == nil {
		return
	}
	if err := e.processed.Add(ctx, marketID); err != nil {
		e.logger.WarnContext(ctx, "oracle: processed-set add failed",
			slog.Int64("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}

// resolveMarket gathers one vote per provider, tallies, and settles on
// consensus. Returns nil with no error when consensus was not reached.
func (e *Engine) resolveMarket(ctx context.Context, m domain.Market) (*SettlementRecord, error) {
	votes := e.collectVotes(ctx, m)

	result := Tally(votes, e.cfg.RequiredConsensus)
	if !result.Agreed {
		e.logger.InfoContext(ctx, "oracle: no consensus yet",
			slog.Int64("market_id", m.ID),
			slog.Int("votes", countVotes(votes)),
			slog.Int("required", e.cfg.RequiredConsensus),
		)
		return nil, nil
	}

	outcome, ok := result.Outcome.Index(m.OutcomesCount)
	if !ok {
		return nil, fmt.Errorf("oracle: outcome %q has no index on %d-outcome market %d",
			result.Outcome, m.OutcomesCount, m.ID)
	}

	err := e.submitter.SettleMarket(ctx, m.ID, outcome)
	if errors.Is(err, domain.ErrAlreadySettled) {
		// Expected after a restart dropped the processed set. The ledger's
		// guard already prevented double payment; just stop re-observing.
		e.logger.WarnContext(ctx, "oracle: market was already settled",
			slog.Int64("market_id", m.ID),
		)
		e.markProcessed(ctx, m.ID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("oracle: settle market %d: %w", m.ID, err)
	}

	e.markProcessed(ctx, m.ID)

	e.logger.InfoContext(ctx, "oracle: market settled",
		slog.Int64("market_id", m.ID),
		slog.String("outcome", string(result.Outcome)),
		slog.Int("support", result.Support),
	)
	e.notify(ctx, "settlement", fmt.Sprintf("Market %d settled", m.ID),
		fmt.Sprintf("%s vs %s resolved %s with %d/%d providers agreeing.",
			m.HomeTeam, m.AwayTeam, result.Outcome, result.Support, len(e.providers)))

	rec := &SettlementRecord{
		MarketID: m.ID,
		Action:   "settled",
		Outcome:  result.Outcome,
		Support:  result.Support,
		Votes:    votes,
		At:       e.now().UTC(),
	}
	if e.attestor != nil {
		sig, err := e.attestor.SignMessage(rec.AttestationPayload())
		if err != nil {
			// The settlement already went through; archive unsigned rather
			// than fail the market.
			e.logger.WarnContext(ctx, "oracle: settlement attestation failed",
				slog.Int64("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		} else {
			rec.Attestation = sig
		}
	}
	return rec, nil
}

// collectVotes queries every provider concurrently and waits for all of them.
// A provider error or a missing/unfinished fixture is an abstention, never an
// error vote.
func (e *Engine) collectVotes(ctx context.Context, m domain.Market) []domain.ProviderVote {
	votes := make([]domain.ProviderVote, len(e.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range e.providers {
		g.Go(func() error {
			votes[i] = e.queryProvider(gctx, p, m)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return votes
}

func (e *Engine) queryProvider(ctx context.Context, p domain.ResultProvider, m domain.Market) domain.ProviderVote {
	fixtures, err := p.FixturesForDay(ctx, m.StartTime)
	if err != nil {
		e.logger.WarnContext(ctx, "oracle: provider query failed",
			slog.String("provider", p.Name()),
			slog.Int64("market_id", m.ID),
			slog.String("error", err.Error()),
		)
		return domain.AbstainVote(p.Name())
	}

	home := NormalizeTeam(m.HomeTeam)
	away := NormalizeTeam(m.AwayTeam)
	for _, f := range fixtures {
		if NormalizeTeam(f.HomeTeam) != home || NormalizeTeam(f.AwayTeam) != away {
			continue
		}
		if !f.Finished {
			return domain.AbstainVote(p.Name())
		}
		return domain.OutcomeVote(p.Name(), f.Outcome())
	}
	return domain.AbstainVote(p.Name())
}

func (e *Engine) notify(ctx context.Context, event, title, message string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, event, title, message); err != nil {
		e.logger.WarnContext(ctx, "oracle: notification failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func countVotes(votes []domain.ProviderVote) int {
	n := 0
	for _, v := range votes {
		if !v.Abstain {
			n++
		}
	}
	return n
}
