package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// Bus channels carrying ledger lifecycle events.
const (
	ChannelMarkets     = "markets"
	ChannelSettlements = "settlements"
)

// houseOwner is the reserved balance key the accumulated fee balance is
// journaled under.
const houseOwner = "house"

// Config holds the ledger's economic parameters and privileged identities.
type Config struct {
	// FeeBps is the house fee on winner profit, in basis points (200 = 2%).
	FeeBps int64

	// MinLiquidity is the per-outcome pool threshold for Forming -> Active.
	// Zero means markets open for betting immediately on creation.
	MinLiquidity domain.Micros

	// OracleAddr is the only identity allowed to settle or void markets,
	// besides HouseAddr.
	OracleAddr string

	// HouseAddr owns the accumulated fee balance.
	HouseAddr string
}

// Journal is the write-through persistence behind the ledger. Any field may
// be nil; journal failures are logged and never fail the originating
// operation, since the in-memory state is authoritative.
type Journal struct {
	Markets  domain.MarketStore
	Bets     domain.BetStore
	Balances domain.BalanceStore
	Audit    domain.AuditStore
}

type marketEntry struct {
	mu sync.Mutex
	m  domain.Market
}

// Ledger is the authoritative pari-mutuel accounting component. It is the
// only writer of pool totals and market lifecycle state. Every mutating
// operation is atomic per market: a claim can never observe a half-applied
// settlement.
type Ledger struct {
	cfg     Config
	journal Journal
	bus     domain.SignalBus
	logger  *slog.Logger
	now     func() time.Time

	mu           sync.RWMutex
	markets      map[int64]*marketEntry
	bets         map[int64]*domain.Bet
	betsByMarket map[int64][]int64
	nextMarketID int64
	nextBetID    int64

	balMu     sync.Mutex
	balances  map[string]domain.Micros
	houseFees domain.Micros
}

// New creates a Ledger. journal stores and bus may be nil.
func New(cfg Config, journal Journal, bus domain.SignalBus, logger *slog.Logger) *Ledger {
	if cfg.FeeBps < 0 {
		cfg.FeeBps = 0
	}
	return &Ledger{
		cfg:          cfg,
		journal:      journal,
		bus:          bus,
		logger:       logger.With(slog.String("component", "ledger")),
		now:          time.Now,
		markets:      make(map[int64]*marketEntry),
		bets:         make(map[int64]*domain.Bet),
		betsByMarket: make(map[int64][]int64),
		balances:     make(map[string]domain.Micros),
	}
}

// SetClock overrides the time source. Test hook.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// Restore reloads markets, bets and balances from the journal after a
// restart. Safe to call on an empty journal.
func (l *Ledger) Restore(ctx context.Context) error {
	if l.journal.Markets == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	states := []domain.MarketState{
		domain.MarketStateForming, domain.MarketStateActive,
		domain.MarketStateSettled, domain.MarketStateVoided,
	}
	for _, st := range states {
		markets, err := l.journal.Markets.ListByState(ctx, st, domain.ListOpts{})
		if err != nil {
			return fmt.Errorf("ledger: restore markets %s: %w", st, err)
		}
		for _, m := range markets {
			l.markets[m.ID] = &marketEntry{m: m}
			if m.ID > l.nextMarketID {
				l.nextMarketID = m.ID
			}
			if l.journal.Bets == nil {
				continue
			}
			bets, err := l.journal.Bets.ListByMarket(ctx, m.ID, domain.ListOpts{})
			if err != nil {
				return fmt.Errorf("ledger: restore bets for market %d: %w", m.ID, err)
			}
			for _, b := range bets {
				bet := b
				l.bets[bet.ID] = &bet
				l.betsByMarket[m.ID] = append(l.betsByMarket[m.ID], bet.ID)
				if bet.ID > l.nextBetID {
					l.nextBetID = bet.ID
				}
			}
		}
	}

	if l.journal.Balances != nil {
		balances, err := l.journal.Balances.List(ctx, domain.ListOpts{})
		if err != nil {
			return fmt.Errorf("ledger: restore balances: %w", err)
		}
		l.balMu.Lock()
		for owner, amount := range balances {
			if owner == houseOwner {
				l.houseFees = amount
				continue
			}
			l.balances[owner] = amount
		}
		l.balMu.Unlock()
	}

	l.logger.InfoContext(ctx, "ledger: restored state",
		slog.Int("markets", len(l.markets)),
		slog.Int("bets", len(l.bets)),
	)
	return nil
}

// CreateMarket registers a new market. The start time must be strictly in
// the future and outcomesCount must be 2 (home/away) or 3 (home/draw/away).
func (l *Ledger) CreateMarket(ctx context.Context, home, away, league string, startTime time.Time, outcomesCount uint8) (domain.Market, error) {
	if home == "" || away == "" {
		return domain.Market{}, fmt.Errorf("ledger: empty team name: %w", domain.ErrInvalidInput)
	}
	if outcomesCount != 2 && outcomesCount != 3 {
		return domain.Market{}, fmt.Errorf("ledger: outcomes count %d: %w", outcomesCount, domain.ErrInvalidInput)
	}
	now := l.now()
	if !startTime.After(now) {
		return domain.Market{}, fmt.Errorf("ledger: start time not in the future: %w", domain.ErrInvalidInput)
	}

	state := domain.MarketStateForming
	if l.cfg.MinLiquidity <= 0 {
		state = domain.MarketStateActive
	}

	l.mu.Lock()
	l.nextMarketID++
	m := domain.Market{
		ID:                 l.nextMarketID,
		HomeTeam:           home,
		AwayTeam:           away,
		League:             league,
		StartTime:          startTime.UTC(),
		State:              state,
		OutcomesCount:      outcomesCount,
		ActivationDeadline: startTime.UTC(),
		CreatedAt:          now.UTC(),
		UpdatedAt:          now.UTC(),
	}
	l.markets[m.ID] = &marketEntry{m: m}
	l.mu.Unlock()

	l.journalMarket(ctx, m)
	l.audit(ctx, "market_created", map[string]any{
		"market_id": m.ID, "home": home, "away": away, "league": league,
	})
	l.publish(ctx, ChannelMarkets, marketEvent{Type: "created", MarketID: m.ID, State: string(m.State)})

	l.logger.InfoContext(ctx, "ledger: market created",
		slog.Int64("market_id", m.ID),
		slog.String("home", home),
		slog.String("away", away),
	)
	return m, nil
}

// PlaceBet locks amount into the market's pool for the chosen outcome and
// records a bet owned by owner.
func (l *Ledger) PlaceBet(ctx context.Context, owner string, marketID int64, outcome uint8, amount domain.Micros) (domain.Bet, error) {
	if owner == "" {
		return domain.Bet{}, fmt.Errorf("ledger: empty owner: %w", domain.ErrInvalidInput)
	}
	if amount <= 0 {
		return domain.Bet{}, fmt.Errorf("ledger: bet amount %d: %w", amount, domain.ErrInvalidAmount)
	}

	e, err := l.entry(marketID)
	if err != nil {
		return domain.Bet{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.m.Open() {
		return domain.Bet{}, fmt.Errorf("ledger: market %d in state %s: %w", marketID, e.m.State, domain.ErrMarketNotOpen)
	}
	now := l.now()
	if !now.Before(e.m.StartTime) {
		return domain.Bet{}, fmt.Errorf("ledger: market %d already started: %w", marketID, domain.ErrMarketNotOpen)
	}
	if !e.m.ValidOutcome(outcome) {
		return domain.Bet{}, fmt.Errorf("ledger: outcome %d on %d-outcome market: %w", outcome, e.m.OutcomesCount, domain.ErrInvalidOutcome)
	}

	e.m.Pools[outcome] += amount
	e.m.UpdatedAt = now.UTC()
	activated := l.maybeActivate(&e.m)

	l.mu.Lock()
	l.nextBetID++
	bet := domain.Bet{
		ID:       l.nextBetID,
		Owner:    owner,
		MarketID: marketID,
		Outcome:  outcome,
		Amount:   amount,
		PlacedAt: now.UTC(),
	}
	l.bets[bet.ID] = &bet
	l.betsByMarket[marketID] = append(l.betsByMarket[marketID], bet.ID)
	l.mu.Unlock()

	l.journalMarket(ctx, e.m)
	l.journalBet(ctx, bet)
	if activated {
		l.publish(ctx, ChannelMarkets, marketEvent{Type: "activated", MarketID: marketID, State: string(domain.MarketStateActive)})
	}

	l.logger.DebugContext(ctx, "ledger: bet placed",
		slog.Int64("bet_id", bet.ID),
		slog.Int64("market_id", marketID),
		slog.Int("outcome", int(outcome)),
		slog.Int64("amount", int64(amount)),
	)
	return bet, nil
}

// maybeActivate transitions a Forming market to Active once every outcome
// pool has reached the minimum liquidity. Caller holds the market lock.
func (l *Ledger) maybeActivate(m *domain.Market) bool {
	if m.State != domain.MarketStateForming {
		return false
	}
	for i := uint8(0); i < m.OutcomesCount; i++ {
		if m.Pools[i] < l.cfg.MinLiquidity {
			return false
		}
	}
	m.State = domain.MarketStateActive
	return true
}

// Odds returns the multiplicative payout factor per outcome at 2 implied
// decimals (150 = 1.50x). Outcomes with an empty pool report 0.
func (l *Ledger) Odds(ctx context.Context, marketID int64) ([]int64, error) {
	e, err := l.entry(marketID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	total := e.m.TotalPool()
	odds := make([]int64, e.m.OutcomesCount)
	for i := range odds {
		odds[i] = CentiOdds(total, e.m.Pools[i])
	}
	return odds, nil
}

// SettleMarket records the winning outcome and transitions the market to
// Settled. Only the oracle or house identity may call it, and only while the
// market is Active.
func (l *Ledger) SettleMarket(ctx context.Context, caller string, marketID int64, winningOutcome uint8) error {
	if err := l.authorize(caller); err != nil {
		return err
	}

	e, err := l.entry(marketID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.m.ResultSet || e.m.State == domain.MarketStateSettled {
		return fmt.Errorf("ledger: market %d: %w", marketID, domain.ErrAlreadySettled)
	}
	if e.m.State == domain.MarketStateVoided {
		return fmt.Errorf("ledger: market %d: %w", marketID, domain.ErrAlreadyVoided)
	}
	if e.m.State != domain.MarketStateActive {
		return fmt.Errorf("ledger: market %d in state %s: %w", marketID, e.m.State, domain.ErrInvalidMarketState)
	}
	if !e.m.ValidOutcome(winningOutcome) {
		return fmt.Errorf("ledger: winning outcome %d: %w", winningOutcome, domain.ErrInvalidOutcome)
	}

	e.m.WinningOutcome = winningOutcome
	e.m.ResultSet = true
	e.m.State = domain.MarketStateSettled
	e.m.UpdatedAt = l.now().UTC()

	l.journalMarket(ctx, e.m)
	l.audit(ctx, "market_settled", map[string]any{
		"market_id": marketID, "winning_outcome": winningOutcome, "caller": caller,
	})
	l.publish(ctx, ChannelSettlements, marketEvent{
		Type: "settled", MarketID: marketID, State: string(domain.MarketStateSettled), Outcome: int(winningOutcome),
	})

	l.logger.InfoContext(ctx, "ledger: market settled",
		slog.Int64("market_id", marketID),
		slog.Int("winning_outcome", int(winningOutcome)),
	)
	return nil
}

// VoidMarket cancels a non-terminal market. Every bet on it becomes
// refund-eligible for its full stake.
func (l *Ledger) VoidMarket(ctx context.Context, caller string, marketID int64) error {
	if err := l.authorize(caller); err != nil {
		return err
	}

	e, err := l.entry(marketID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.m.State {
	case domain.MarketStateSettled:
		return fmt.Errorf("ledger: market %d: %w", marketID, domain.ErrAlreadySettled)
	case domain.MarketStateVoided:
		return fmt.Errorf("ledger: market %d: %w", marketID, domain.ErrAlreadyVoided)
	}

	e.m.State = domain.MarketStateVoided
	e.m.UpdatedAt = l.now().UTC()

	l.journalMarket(ctx, e.m)
	l.audit(ctx, "market_voided", map[string]any{"market_id": marketID, "caller": caller})
	l.publish(ctx, ChannelSettlements, marketEvent{Type: "voided", MarketID: marketID, State: string(domain.MarketStateVoided)})

	l.logger.InfoContext(ctx, "ledger: market voided", slog.Int64("market_id", marketID))
	return nil
}

// ClaimWinnings pays out a single bet. On a settled market the bet must be
// on the winning outcome; the payout is stake*totalPool/winningPool with the
// house fee taken from the profit portion. On a voided market the full stake
// is refunded with no fee. Returns the amount credited to the owner's
// withdrawable balance.
func (l *Ledger) ClaimWinnings(ctx context.Context, caller string, betID int64) (domain.Micros, error) {
	l.mu.RLock()
	bet, ok := l.bets[betID]
	l.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("ledger: bet %d: %w", betID, domain.ErrNotFound)
	}
	if bet.Owner != caller {
		return 0, fmt.Errorf("ledger: bet %d: %w", betID, domain.ErrNotOwner)
	}

	e, err := l.entry(bet.MarketID)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if bet.Claimed {
		return 0, fmt.Errorf("ledger: bet %d: %w", betID, domain.ErrAlreadyClaimed)
	}
	if bet.Refunded {
		return 0, fmt.Errorf("ledger: bet %d: %w", betID, domain.ErrAlreadyRefunded)
	}

	now := l.now().UTC()

	switch e.m.State {
	case domain.MarketStateVoided:
		bet.Refunded = true
		bet.SettledAt = &now
		l.credit(bet.Owner, bet.Amount)
		l.journalBet(ctx, *bet)
		l.journalBalances(ctx, bet.Owner)
		l.audit(ctx, "bet_refunded", map[string]any{
			"bet_id": betID, "market_id": bet.MarketID, "amount": int64(bet.Amount),
		})
		return bet.Amount, nil

	case domain.MarketStateSettled:
		if bet.Outcome != e.m.WinningOutcome {
			return 0, fmt.Errorf("ledger: bet %d on outcome %d, winner %d: %w",
				betID, bet.Outcome, e.m.WinningOutcome, domain.ErrBetLost)
		}
		gross := grossPayout(bet.Amount, e.m.TotalPool(), e.m.Pools[e.m.WinningOutcome])
		net, fee := splitFee(bet.Amount, gross, l.cfg.FeeBps)

		bet.Claimed = true
		bet.SettledAt = &now
		l.credit(bet.Owner, net)
		l.creditHouse(fee)
		l.journalBet(ctx, *bet)
		l.journalBalances(ctx, bet.Owner)
		l.journalBalances(ctx, houseOwner)
		l.audit(ctx, "bet_claimed", map[string]any{
			"bet_id": betID, "market_id": bet.MarketID,
			"gross": int64(gross), "net": int64(net), "fee": int64(fee),
		})

		l.logger.InfoContext(ctx, "ledger: winnings claimed",
			slog.Int64("bet_id", betID),
			slog.Int64("net", int64(net)),
			slog.Int64("fee", int64(fee)),
		)
		return net, nil

	default:
		return 0, fmt.Errorf("ledger: market %d in state %s: %w", bet.MarketID, e.m.State, domain.ErrInvalidMarketState)
	}
}

// Withdraw zeroes the caller's withdrawable balance and returns the amount
// to transfer out. The balance is cleared before the amount is handed back,
// so a re-entrant call observes zero.
func (l *Ledger) Withdraw(ctx context.Context, caller string) (domain.Micros, error) {
	if caller == "" {
		return 0, fmt.Errorf("ledger: empty caller: %w", domain.ErrInvalidInput)
	}

	l.balMu.Lock()
	amount := l.balances[caller]
	if amount <= 0 {
		l.balMu.Unlock()
		return 0, fmt.Errorf("ledger: no balance for %s: %w", caller, domain.ErrInvalidAmount)
	}
	delete(l.balances, caller)
	l.balMu.Unlock()

	l.journalBalances(ctx, caller)
	l.audit(ctx, "withdrawal", map[string]any{"owner": caller, "amount": int64(amount)})

	l.logger.InfoContext(ctx, "ledger: balance withdrawn",
		slog.String("owner", caller),
		slog.Int64("amount", int64(amount)),
	)
	return amount, nil
}

// WithdrawHouseFees transfers the accumulated fee balance. House only.
func (l *Ledger) WithdrawHouseFees(ctx context.Context, caller string) (domain.Micros, error) {
	if caller != l.cfg.HouseAddr {
		return 0, fmt.Errorf("ledger: caller %s: %w", caller, domain.ErrUnauthorized)
	}

	l.balMu.Lock()
	amount := l.houseFees
	if amount <= 0 {
		l.balMu.Unlock()
		return 0, fmt.Errorf("ledger: no house fees accrued: %w", domain.ErrInvalidAmount)
	}
	l.houseFees = 0
	l.balMu.Unlock()

	l.journalBalances(ctx, houseOwner)
	l.audit(ctx, "house_fees_withdrawn", map[string]any{"amount": int64(amount)})
	return amount, nil
}

// GetMarket returns a snapshot of the market.
func (l *Ledger) GetMarket(ctx context.Context, marketID int64) (domain.Market, error) {
	e, err := l.entry(marketID)
	if err != nil {
		return domain.Market{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m, nil
}

// GetBet returns a snapshot of the bet. Claim and refund mutate bet records
// under the owning market's lock, so the copy is taken under that same lock.
func (l *Ledger) GetBet(ctx context.Context, betID int64) (domain.Bet, error) {
	l.mu.RLock()
	bet, ok := l.bets[betID]
	l.mu.RUnlock()
	if !ok {
		return domain.Bet{}, fmt.Errorf("ledger: bet %d: %w", betID, domain.ErrNotFound)
	}

	e, err := l.entry(bet.MarketID)
	if err != nil {
		return domain.Bet{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return *bet, nil
}

// Balance returns the owner's current withdrawable balance.
func (l *Ledger) Balance(ctx context.Context, owner string) domain.Micros {
	l.balMu.Lock()
	defer l.balMu.Unlock()
	return l.balances[owner]
}

// HouseFees returns the accumulated fee balance.
func (l *Ledger) HouseFees(ctx context.Context) domain.Micros {
	l.balMu.Lock()
	defer l.balMu.Unlock()
	return l.houseFees
}

// MarketCount returns the total number of markets ever created.
func (l *Ledger) MarketCount(ctx context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextMarketID, nil
}

// ListOverdue returns Active markets without a result whose start time is at
// or before the cutoff, ordered by market ID.
func (l *Ledger) ListOverdue(ctx context.Context, startedBefore time.Time) ([]domain.Market, error) {
	l.mu.RLock()
	entries := make([]*marketEntry, 0, len(l.markets))
	for _, e := range l.markets {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	var overdue []domain.Market
	for _, e := range entries {
		e.mu.Lock()
		if e.m.State == domain.MarketStateActive && !e.m.ResultSet && !e.m.StartTime.After(startedBefore) {
			overdue = append(overdue, e.m)
		}
		e.mu.Unlock()
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].ID < overdue[j].ID })
	return overdue, nil
}

// ExpireForming voids Forming markets that failed to reach minimum liquidity
// by their activation deadline, making their bets refundable. Returns the
// IDs of the markets voided.
func (l *Ledger) ExpireForming(ctx context.Context, now time.Time) ([]int64, error) {
	l.mu.RLock()
	entries := make([]*marketEntry, 0, len(l.markets))
	for _, e := range l.markets {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	var voided []int64
	for _, e := range entries {
		e.mu.Lock()
		id := e.m.ID
		expired := e.m.State == domain.MarketStateForming && !now.Before(e.m.ActivationDeadline)
		if expired {
			e.m.State = domain.MarketStateVoided
			e.m.UpdatedAt = l.now().UTC()
			l.journalMarket(ctx, e.m)
		}
		e.mu.Unlock()

		if expired {
			voided = append(voided, id)
			l.audit(ctx, "market_expired", map[string]any{"market_id": id})
			l.publish(ctx, ChannelSettlements, marketEvent{Type: "voided", MarketID: id, State: string(domain.MarketStateVoided)})
			l.logger.InfoContext(ctx, "ledger: forming market expired", slog.Int64("market_id", id))
		}
	}
	return voided, nil
}

func (l *Ledger) authorize(caller string) error {
	if caller != l.cfg.OracleAddr && caller != l.cfg.HouseAddr {
		return fmt.Errorf("ledger: caller %s: %w", caller, domain.ErrUnauthorized)
	}
	return nil
}

func (l *Ledger) entry(marketID int64) (*marketEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.markets[marketID]
	if !ok {
		return nil, fmt.Errorf("ledger: market %d: %w", marketID, domain.ErrNotFound)
	}
	return e, nil
}

// credit adds to an owner's withdrawable balance. Caller must not hold balMu.
func (l *Ledger) credit(owner string, amount domain.Micros) {
	if amount <= 0 {
		return
	}
	l.balMu.Lock()
	l.balances[owner] += amount
	l.balMu.Unlock()
}

func (l *Ledger) creditHouse(amount domain.Micros) {
	if amount <= 0 {
		return
	}
	l.balMu.Lock()
	l.houseFees += amount
	l.balMu.Unlock()
}

type marketEvent struct {
	Type     string `json:"type"`
	MarketID int64  `json:"market_id"`
	State    string `json:"state"`
	Outcome  int    `json:"outcome,omitempty"`
}

func (l *Ledger) publish(ctx context.Context, channel string, ev marketEvent) {
	if l.bus == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := l.bus.Publish(ctx, channel, payload); err != nil {
		l.logger.WarnContext(ctx, "ledger: event publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

func (l *Ledger) journalMarket(ctx context.Context, m domain.Market) {
	if l.journal.Markets == nil {
		return
	}
	if err := l.journal.Markets.Upsert(ctx, m); err != nil {
		l.logger.WarnContext(ctx, "ledger: market journal write failed",
			slog.Int64("market_id", m.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (l *Ledger) journalBet(ctx context.Context, b domain.Bet) {
	if l.journal.Bets == nil {
		return
	}
	if err := l.journal.Bets.Upsert(ctx, b); err != nil {
		l.logger.WarnContext(ctx, "ledger: bet journal write failed",
			slog.Int64("bet_id", b.ID),
			slog.String("error", err.Error()),
		)
	}
}

// journalBalances persists the owner's current balance, or the house fee
// balance when owner is the reserved house key.
func (l *Ledger) journalBalances(ctx context.Context, owner string) {
	if l.journal.Balances == nil {
		return
	}
	l.balMu.Lock()
	amount := l.balances[owner]
	if owner == houseOwner {
		amount = l.houseFees
	}
	l.balMu.Unlock()
	if err := l.journal.Balances.Set(ctx, owner, amount); err != nil {
		l.logger.WarnContext(ctx, "ledger: balance journal write failed",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
	}
}

func (l *Ledger) audit(ctx context.Context, event string, detail map[string]any) {
	if l.journal.Audit == nil {
		return
	}
	if err := l.journal.Audit.Log(ctx, event, detail); err != nil {
		l.logger.WarnContext(ctx, "ledger: audit write failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
