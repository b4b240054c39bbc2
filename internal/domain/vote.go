package domain

// SymbolicOutcome is a provider-reported match result before it is mapped to
// a market's numeric outcome index.
type SymbolicOutcome string

const (
	SymbolicHome SymbolicOutcome = "home"
	SymbolicDraw SymbolicOutcome = "draw"
	SymbolicAway SymbolicOutcome = "away"
)

// ProviderVote is one provider's answer for one market in one settlement
// attempt. A provider that has no matching finished fixture abstains; an
// abstention carries no outcome and is not an error vote.
type ProviderVote struct {
	Provider string
	Abstain  bool
	Outcome  SymbolicOutcome // valid only when !Abstain
}

// AbstainVote returns an abstention for the named provider.
func AbstainVote(provider string) ProviderVote {
	return ProviderVote{Provider: provider, Abstain: true}
}

// OutcomeVote returns a vote for the given outcome from the named provider.
func OutcomeVote(provider string, outcome SymbolicOutcome) ProviderVote {
	return ProviderVote{Provider: provider, Outcome: outcome}
}

// Index maps the symbolic outcome onto a market's numeric outcome index.
// Two-outcome markets use 0 (home) and 1 (away); three-outcome markets use
// 0 (home), 1 (draw), 2 (away). A draw on a two-outcome market has no index.
func (s SymbolicOutcome) Index(outcomesCount uint8) (uint8, bool) {
	switch s {
	case SymbolicHome:
		return 0, outcomesCount >= 2
	case SymbolicAway:
		if outcomesCount == 2 {
			return 1, true
		}
		return 2, outcomesCount == 3
	case SymbolicDraw:
		return 1, outcomesCount == 3
	}
	return 0, false
}

// ConsensusOutcome is the result of tallying provider votes. Agreed is false
// when the highest per-outcome vote count is below the required threshold, or
// when two outcomes tie for the highest count.
type ConsensusOutcome struct {
	Agreed  bool
	Outcome SymbolicOutcome // valid only when Agreed
	Support int             // number of providers backing Outcome
}

// FixtureResult is one row of a provider's event listing for a given day.
// Scores are meaningful only when Finished is true.
type FixtureResult struct {
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
	Finished  bool
}

// Outcome derives the symbolic result from the final scores.
func (f FixtureResult) Outcome() SymbolicOutcome {
	switch {
	case f.HomeScore > f.AwayScore:
		return SymbolicHome
	case f.AwayScore > f.HomeScore:
		return SymbolicAway
	default:
		return SymbolicDraw
	}
}
