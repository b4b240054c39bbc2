package oracle

import (
	"testing"

	"github.com/alanyoungcy/paribet/internal/domain"
)

func TestTally(t *testing.T) {
	vote := domain.OutcomeVote
	abstain := domain.AbstainVote

	tests := []struct {
		name        string
		votes       []domain.ProviderVote
		threshold   int
		wantAgreed  bool
		wantOutcome domain.SymbolicOutcome
		wantSupport int
	}{
		{
			name: "two of three agree",
			votes: []domain.ProviderVote{
				vote("a", domain.SymbolicHome),
				vote("b", domain.SymbolicHome),
				vote("c", domain.SymbolicAway),
			},
			threshold:   2,
			wantAgreed:  true,
			wantOutcome: domain.SymbolicHome,
			wantSupport: 2,
		},
		{
			name: "single vote below threshold",
			votes: []domain.ProviderVote{
				vote("a", domain.SymbolicHome),
				abstain("b"),
				abstain("c"),
			},
			threshold:  2,
			wantAgreed: false,
		},
		{
			name: "unanimity among responders still below threshold",
			votes: []domain.ProviderVote{
				vote("a", domain.SymbolicDraw),
			},
			threshold:  2,
			wantAgreed: false,
		},
		{
			name: "tie at the top is no consensus",
			votes: []domain.ProviderVote{
				vote("a", domain.SymbolicHome),
				vote("b", domain.SymbolicHome),
				vote("c", domain.SymbolicAway),
				vote("d", domain.SymbolicAway),
			},
			threshold:  2,
			wantAgreed: false,
		},
		{
			name:       "all abstain",
			votes:      []domain.ProviderVote{abstain("a"), abstain("b"), abstain("c")},
			threshold:  2,
			wantAgreed: false,
		},
		{
			name:       "no votes at all",
			votes:      nil,
			threshold:  2,
			wantAgreed: false,
		},
		{
			name: "threshold of one",
			votes: []domain.ProviderVote{
				vote("a", domain.SymbolicAway),
				abstain("b"),
			},
			threshold:   1,
			wantAgreed:  true,
			wantOutcome: domain.SymbolicAway,
			wantSupport: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tally(tt.votes, tt.threshold)
			if got.Agreed != tt.wantAgreed {
				t.Fatalf("Agreed = %v, want %v", got.Agreed, tt.wantAgreed)
			}
			if !tt.wantAgreed {
				return
			}
			if got.Outcome != tt.wantOutcome || got.Support != tt.wantSupport {
				t.Errorf("result = (%s, %d), want (%s, %d)",
					got.Outcome, got.Support, tt.wantOutcome, tt.wantSupport)
			}
		})
	}
}

func TestSymbolicOutcomeIndex(t *testing.T) {
	tests := []struct {
		sym      domain.SymbolicOutcome
		outcomes uint8
		want     uint8
		ok       bool
	}{
		{domain.SymbolicHome, 2, 0, true},
		{domain.SymbolicAway, 2, 1, true},
		{domain.SymbolicDraw, 2, 0, false},
		{domain.SymbolicHome, 3, 0, true},
		{domain.SymbolicDraw, 3, 1, true},
		{domain.SymbolicAway, 3, 2, true},
	}
	for _, tt := range tests {
		got, ok := tt.sym.Index(tt.outcomes)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("%s.Index(%d) = (%d, %v), want (%d, %v)",
				tt.sym, tt.outcomes, got, ok, tt.want, tt.ok)
		}
	}
}
