package oracle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/paribet/internal/crypto"
	"github.com/alanyoungcy/paribet/internal/domain"
	"github.com/alanyoungcy/paribet/internal/ledger"
)

var kickoff = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

type fakeSource struct {
	markets []domain.Market
}

func (s *fakeSource) ListOverdue(ctx context.Context, startedBefore time.Time) ([]domain.Market, error) {
	var out []domain.Market
	for _, m := range s.markets {
		if !m.StartTime.After(startedBefore) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeSource) MarketCount(ctx context.Context) (int64, error) {
	return int64(len(s.markets)), nil
}

type fakeSubmitter struct {
	mu      sync.Mutex
	settled map[int64]uint8
	voided  map[int64]bool
	err     error
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{settled: make(map[int64]uint8), voided: make(map[int64]bool)}
}

func (s *fakeSubmitter) SettleMarket(ctx context.Context, marketID int64, outcome uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.settled[marketID]; ok {
		return domain.ErrAlreadySettled
	}
	s.settled[marketID] = outcome
	return nil
}

func (s *fakeSubmitter) VoidMarket(ctx context.Context, marketID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voided[marketID] = true
	return nil
}

func (s *fakeSubmitter) settledOutcome(marketID int64) (uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.settled[marketID]
	return o, ok
}

type fakeProvider struct {
	name     string
	fixtures []domain.FixtureResult
	err      error

	mu      sync.Mutex
	queries int
	block   chan struct{} // when set, FixturesForDay waits on it
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) FixturesForDay(ctx context.Context, day time.Time) ([]domain.FixtureResult, error) {
	p.mu.Lock()
	p.queries++
	block := p.block
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.fixtures, nil
}

func (p *fakeProvider) queryCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queries
}

type memProcessed struct {
	mu  sync.Mutex
	ids map[int64]bool
}

func newMemProcessed() *memProcessed { return &memProcessed{ids: make(map[int64]bool)} }

func (m *memProcessed) Contains(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[id], nil
}

func (m *memProcessed) Add(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = true
	return nil
}

func (m *memProcessed) Len(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.ids)), nil
}

func overdueMarket(id int64) domain.Market {
	return domain.Market{
		ID:            id,
		HomeTeam:      "São Paulo",
		AwayTeam:      "Flamengo",
		League:        "Serie A",
		StartTime:     kickoff,
		State:         domain.MarketStateActive,
		OutcomesCount: 3,
	}
}

func finishedFixture(home, away int) domain.FixtureResult {
	return domain.FixtureResult{
		HomeTeam:  "Sao Paulo", // provider spells without diacritics
		AwayTeam:  "Flamengo",
		HomeScore: home,
		AwayScore: away,
		Finished:  true,
	}
}

func newTestEngine(t *testing.T, src *fakeSource, sub *fakeSubmitter, processed domain.ProcessedMarkets, providers ...domain.ResultProvider) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(Config{
		RequiredConsensus: 2,
		GracePeriod:       2 * time.Hour,
		PollInterval:      10 * time.Minute,
	}, src, sub, providers, processed, nil, nil, nil, logger)
	e.SetClock(func() time.Time { return kickoff.Add(3 * time.Hour) })
	return e
}

func TestConsensusSettlesOnce(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{overdueMarket(1)}}
	sub := newFakeSubmitter()
	processed := newMemProcessed()

	// Two providers agree on home, one dissents.
	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}
	b := &fakeProvider{name: "b", fixtures: []domain.FixtureResult{finishedFixture(3, 1)}}
	c := &fakeProvider{name: "c", fixtures: []domain.FixtureResult{finishedFixture(0, 1)}}

	e := newTestEngine(t, src, sub, processed, a, b, c)

	stats, err := e.CheckPendingMarkets(context.Background())
	if err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}
	if stats.Settled != 1 {
		t.Fatalf("stats = %+v, want 1 settled", stats)
	}
	outcome, ok := sub.settledOutcome(1)
	if !ok || outcome != 0 {
		t.Fatalf("settled outcome = (%d, %v), want (0, true)", outcome, ok)
	}
	if seen, _ := processed.Contains(context.Background(), 1); !seen {
		t.Error("market not added to processed set")
	}

	// Second cycle skips via the processed set; the submitter sees no
	// second call.
	stats, err = e.CheckPendingMarkets(context.Background())
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if stats.Skipped != 1 || stats.Settled != 0 {
		t.Errorf("second cycle stats = %+v, want 1 skipped, 0 settled", stats)
	}
}

func TestBelowThresholdLeavesMarketPending(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{overdueMarket(1)}}
	sub := newFakeSubmitter()
	processed := newMemProcessed()

	// Only one provider responds; its lone vote is unanimity among
	// responders but still below the threshold of two.
	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}
	b := &fakeProvider{name: "b", err: errors.New("upstream 503")}
	c := &fakeProvider{name: "c"} // no matching fixture

	e := newTestEngine(t, src, sub, processed, a, b, c)

	stats, err := e.CheckPendingMarkets(context.Background())
	if err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}
	if stats.NoConsensus != 1 || stats.Settled != 0 {
		t.Fatalf("stats = %+v, want 1 no-consensus", stats)
	}
	if _, ok := sub.settledOutcome(1); ok {
		t.Error("market settled below threshold")
	}
	if seen, _ := processed.Contains(context.Background(), 1); seen {
		t.Error("unsettled market must not be marked processed")
	}

	// The next cycle retries the same market.
	if stats, _ = e.CheckPendingMarkets(context.Background()); stats.NoConsensus != 1 {
		t.Errorf("retry cycle stats = %+v, want 1 no-consensus", stats)
	}
}

func TestUnfinishedFixtureIsAbstention(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{overdueMarket(1)}}
	sub := newFakeSubmitter()

	inPlay := finishedFixture(1, 0)
	inPlay.Finished = false
	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{inPlay}}
	b := &fakeProvider{name: "b", fixtures: []domain.FixtureResult{inPlay}}

	e := newTestEngine(t, src, sub, newMemProcessed(), a, b)

	stats, err := e.CheckPendingMarkets(context.Background())
	if err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}
	if stats.NoConsensus != 1 {
		t.Fatalf("stats = %+v, want 1 no-consensus", stats)
	}
}

func TestDrawSettlesMiddleOutcome(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{overdueMarket(1)}}
	sub := newFakeSubmitter()

	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{finishedFixture(1, 1)}}
	b := &fakeProvider{name: "b", fixtures: []domain.FixtureResult{finishedFixture(1, 1)}}

	e := newTestEngine(t, src, sub, newMemProcessed(), a, b)

	if _, err := e.CheckPendingMarkets(context.Background()); err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}
	outcome, ok := sub.settledOutcome(1)
	if !ok || outcome != 1 {
		t.Fatalf("settled outcome = (%d, %v), want (1, true)", outcome, ok)
	}
}

// A restart loses the processed set; the ledger's own guard rejects the
// duplicate and the engine treats that as success, not failure.
func TestAlreadySettledAfterRestart(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{overdueMarket(1)}}
	sub := newFakeSubmitter()
	sub.settled[1] = 0 // settled before the "restart"

	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}
	b := &fakeProvider{name: "b", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}

	processed := newMemProcessed() // empty, as after restart
	e := newTestEngine(t, src, sub, processed, a, b)

	stats, err := e.CheckPendingMarkets(context.Background())
	if err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}
	if stats.Failed != 0 {
		t.Fatalf("stats = %+v, duplicate settlement must not count as failure", stats)
	}
	if seen, _ := processed.Contains(context.Background(), 1); !seen {
		t.Error("already-settled market should be marked processed")
	}
}

func TestSubmitterFailureRetriesNextCycle(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{overdueMarket(1)}}
	sub := newFakeSubmitter()
	sub.err = errors.New("relay timeout")

	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}
	b := &fakeProvider{name: "b", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}

	processed := newMemProcessed()
	e := newTestEngine(t, src, sub, processed, a, b)

	stats, err := e.CheckPendingMarkets(context.Background())
	if err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("stats = %+v, want 1 failed", stats)
	}
	if seen, _ := processed.Contains(context.Background(), 1); seen {
		t.Error("failed settlement must not be marked processed")
	}

	// The transient fault clears; the next scheduled cycle succeeds.
	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()
	stats, err = e.CheckPendingMarkets(context.Background())
	if err != nil {
		t.Fatalf("retry cycle: %v", err)
	}
	if stats.Settled != 1 {
		t.Errorf("retry stats = %+v, want 1 settled", stats)
	}
}

func TestOneMarketFailureDoesNotAbortBatch(t *testing.T) {
	// Market 1's outcome cannot be encoded (draw on a 2-outcome market);
	// market 2 must still settle in the same cycle.
	bad := overdueMarket(1)
	bad.OutcomesCount = 2
	src := &fakeSource{markets: []domain.Market{bad, overdueMarket(2)}}
	sub := newFakeSubmitter()

	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{finishedFixture(1, 1)}}
	b := &fakeProvider{name: "b", fixtures: []domain.FixtureResult{finishedFixture(1, 1)}}

	e := newTestEngine(t, src, sub, newMemProcessed(), a, b)

	stats, err := e.CheckPendingMarkets(context.Background())
	if err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}
	if stats.Failed != 1 || stats.Settled != 1 {
		t.Fatalf("stats = %+v, want 1 failed and 1 settled", stats)
	}
	if _, ok := sub.settledOutcome(2); !ok {
		t.Error("market 2 not settled after market 1 failed")
	}
}

func TestOverlappingCycleIsDropped(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{overdueMarket(1)}}
	sub := newFakeSubmitter()

	block := make(chan struct{})
	slow := &fakeProvider{name: "slow", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}, block: block}
	quick := &fakeProvider{name: "quick", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}

	e := newTestEngine(t, src, sub, newMemProcessed(), slow, quick)

	done := make(chan CycleStats, 1)
	go func() {
		stats, _ := e.CheckPendingMarkets(context.Background())
		done <- stats
	}()

	// Wait until the first cycle is inside a provider query.
	for slow.queryCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// The overlapping invocation is a no-op: no extra provider queries, no
	// settlement attempt.
	stats, err := e.CheckPendingMarkets(context.Background())
	if err != nil {
		t.Fatalf("overlapping invocation: %v", err)
	}
	if stats != (CycleStats{}) {
		t.Errorf("overlapping stats = %+v, want zero", stats)
	}
	if n := slow.queryCount(); n != 1 {
		t.Errorf("slow provider queried %d times during overlap, want 1", n)
	}

	close(block)
	first := <-done
	if first.Settled != 1 {
		t.Errorf("first cycle stats = %+v, want 1 settled", first)
	}
}

// Full path against the real ledger instead of fakes: the oracle handle
// serves as both market source and settlement submitter.
func TestEngineAgainstRealLedger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := ledger.New(ledger.Config{
		FeeBps:     200,
		OracleAddr: "0xoracle",
		HouseAddr:  "0xhouse",
	}, ledger.Journal{}, nil, logger)
	l.SetClock(func() time.Time { return kickoff.Add(-time.Hour) })
	ctx := context.Background()

	m, err := l.CreateMarket(ctx, "São Paulo", "Flamengo", "Serie A", kickoff, 3)
	if err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}
	if _, err := l.PlaceBet(ctx, "alice", m.ID, 0, 1_000_000); err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	l.SetClock(func() time.Time { return kickoff.Add(3 * time.Hour) })

	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}
	b := &fakeProvider{name: "b", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}

	h := l.OracleHandle()
	e := New(Config{RequiredConsensus: 2}, h, h, []domain.ResultProvider{a, b}, newMemProcessed(), nil, nil, nil, logger)
	e.SetClock(func() time.Time { return kickoff.Add(3 * time.Hour) })

	stats, err := e.CheckPendingMarkets(ctx)
	if err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}
	if stats.Settled != 1 {
		t.Fatalf("stats = %+v, want 1 settled", stats)
	}

	got, err := l.GetMarket(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMarket: %v", err)
	}
	if got.State != domain.MarketStateSettled || got.WinningOutcome != 0 {
		t.Errorf("market = (%s, %d), want (%s, 0)", got.State, got.WinningOutcome, domain.MarketStateSettled)
	}
}

type recordingArchiver struct {
	mu      sync.Mutex
	records []SettlementRecord
}

func (a *recordingArchiver) ArchiveSettlements(ctx context.Context, records []SettlementRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, records...)
	return nil
}

func TestSettlementRecordsCarryAttestation(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{overdueMarket(1)}}
	sub := newFakeSubmitter()
	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}
	b := &fakeProvider{name: "b", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	arch := &recordingArchiver{}
	e := New(Config{RequiredConsensus: 2}, src, sub,
		[]domain.ResultProvider{a, b}, newMemProcessed(), nil, arch, nil, logger)
	e.SetClock(func() time.Time { return kickoff.Add(3 * time.Hour) })

	// Hardhat account #0, throwaway.
	signer, err := crypto.NewSigner("ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", 137)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	e.SetAttestor(signer)

	if _, err := e.CheckPendingMarkets(context.Background()); err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}

	if len(arch.records) != 1 {
		t.Fatalf("archived records = %d, want 1", len(arch.records))
	}
	rec := arch.records[0]
	if rec.Attestation == "" {
		t.Fatal("settled record has no attestation")
	}
	ok, err := crypto.VerifyMessage(rec.AttestationPayload(), rec.Attestation, signer.Address())
	if err != nil {
		t.Fatalf("VerifyMessage: %v", err)
	}
	if !ok {
		t.Error("attestation does not verify against the signer address")
	}
}

func TestCycleLogsProcessedTotal(t *testing.T) {
	src := &fakeSource{markets: []domain.Market{overdueMarket(1)}}
	sub := newFakeSubmitter()
	a := &fakeProvider{name: "a", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}
	b := &fakeProvider{name: "b", fixtures: []domain.FixtureResult{finishedFixture(2, 0)}}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	e := New(Config{RequiredConsensus: 2}, src, sub,
		[]domain.ResultProvider{a, b}, newMemProcessed(), nil, nil, nil, logger)
	e.SetClock(func() time.Time { return kickoff.Add(3 * time.Hour) })

	if _, err := e.CheckPendingMarkets(context.Background()); err != nil {
		t.Fatalf("CheckPendingMarkets: %v", err)
	}
	if !strings.Contains(buf.String(), `"processed_total":1`) {
		t.Errorf("cycle summary missing processed set size:\n%s", buf.String())
	}
}
