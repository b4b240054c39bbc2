package domain

import "time"

// MarketState represents the lifecycle state of a betting market. Transitions
// are monotonic: Created -> Forming -> Active -> Settled | Voided. Settled and
// Voided are terminal.
type MarketState string

const (
	MarketStateCreated MarketState = "created"
	MarketStateForming MarketState = "forming"
	MarketStateActive  MarketState = "active"
	MarketStateSettled MarketState = "settled"
	MarketStateVoided  MarketState = "voided"
)

// Terminal reports whether the state admits no further transitions.
func (s MarketState) Terminal() bool {
	return s == MarketStateSettled || s == MarketStateVoided
}

// Micros is a monetary amount with 6 implied decimal places, matching the
// stablecoin minor-unit convention. All pool and balance arithmetic is done in
// this unit; divisions truncate toward zero.
type Micros int64

// MaxOutcomes is the largest number of outcomes a market can carry
// (home / draw / away).
const MaxOutcomes = 3

// Outcome indexes within a market's pool array. For two-outcome markets the
// valid indexes are 0 (home) and 1 (away); for three-outcome markets they are
// 0 (home), 1 (draw), and 2 (away).
const (
	OutcomeHome uint8 = 0
	OutcomeDraw uint8 = 1
	OutcomeAway uint8 = 2
)

// Market is one bettable sporting event with its own pari-mutuel pools.
type Market struct {
	ID                 int64
	HomeTeam           string
	AwayTeam           string
	League             string
	StartTime          time.Time
	State              MarketState
	OutcomesCount      uint8
	Pools              [MaxOutcomes]Micros
	ResultSet          bool
	WinningOutcome     uint8 // valid only when ResultSet
	ActivationDeadline time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TotalPool returns the sum of the per-outcome pools. The total is derived
// rather than stored so the sum invariant holds by construction.
func (m *Market) TotalPool() Micros {
	var total Micros
	for i := uint8(0); i < m.OutcomesCount && i < MaxOutcomes; i++ {
		total += m.Pools[i]
	}
	return total
}

// ValidOutcome reports whether the outcome index addresses one of the
// market's pools.
func (m *Market) ValidOutcome(outcome uint8) bool {
	return outcome < m.OutcomesCount
}

// Open reports whether the market currently accepts bets, ignoring the start
// time cutoff (the ledger checks that separately).
func (m *Market) Open() bool {
	return m.State == MarketStateForming || m.State == MarketStateActive
}
