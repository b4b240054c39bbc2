package oracle

import "github.com/alanyoungcy/paribet/internal/domain"

var tallyOrder = []domain.SymbolicOutcome{
	domain.SymbolicHome,
	domain.SymbolicDraw,
	domain.SymbolicAway,
}

// Tally counts non-abstaining votes per outcome and reports consensus only
// when the highest count reaches the threshold outright. A tie at the top is
// no consensus even above the threshold; so is unanimous agreement among
// fewer responders than the threshold requires.
func Tally(votes []domain.ProviderVote, threshold int) domain.ConsensusOutcome {
	if threshold < 1 {
		threshold = 1
	}

	counts := make(map[domain.SymbolicOutcome]int, len(tallyOrder))
	for _, v := range votes {
		if v.Abstain {
			continue
		}
		counts[v.Outcome]++
	}

	var (
		best  domain.SymbolicOutcome
		bestN int
		tied  bool
	)
	for _, o := range tallyOrder {
		n := counts[o]
		switch {
		case n > bestN:
			best, bestN, tied = o, n, false
		case n == bestN && n > 0:
			tied = true
		}
	}

	if bestN < threshold || tied {
		return domain.ConsensusOutcome{}
	}
	return domain.ConsensusOutcome{Agreed: true, Outcome: best, Support: bestN}
}
