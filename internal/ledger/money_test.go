package ledger

import (
	"testing"

	"github.com/alanyoungcy/paribet/internal/domain"
)

const unit = domain.Micros(1_000_000)

func TestCentiOdds(t *testing.T) {
	tests := []struct {
		name  string
		total domain.Micros
		pool  domain.Micros
		want  int64
	}{
		{"even split", 2000 * unit, 1000 * unit, 200},
		{"favourite", 1500 * unit, 1000 * unit, 150},
		{"longshot", 1500 * unit, 500 * unit, 300},
		{"empty pool sentinel", 1500 * unit, 0, 0},
		{"empty market", 0, 0, 0},
		{"truncates toward zero", 1000 * unit, 300 * unit, 333},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CentiOdds(tt.total, tt.pool); got != tt.want {
				t.Errorf("CentiOdds(%d, %d) = %d, want %d", tt.total, tt.pool, got, tt.want)
			}
		})
	}
}

func TestGrossPayout(t *testing.T) {
	tests := []struct {
		name  string
		stake domain.Micros
		total domain.Micros
		pool  domain.Micros
		want  domain.Micros
	}{
		{"proportional", 1000 * unit, 1500 * unit, 1000 * unit, 1500 * unit},
		{"whole pool", 500 * unit, 500 * unit, 500 * unit, 500 * unit},
		{"truncates dust", 1, 10, 3, 3},
		{"zero pool", 1000 * unit, 1500 * unit, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grossPayout(tt.stake, tt.total, tt.pool); got != tt.want {
				t.Errorf("grossPayout(%d, %d, %d) = %d, want %d", tt.stake, tt.total, tt.pool, got, tt.want)
			}
		})
	}
}

// grossPayout multiplies stake by total before dividing; the product must
// not wrap even for pools far beyond int64 midpoints.
func TestGrossPayoutLargePools(t *testing.T) {
	stake := domain.Micros(4_000_000_000 * 1_000_000) // 4e15 micros
	total := stake * 2
	got := grossPayout(stake, total, stake)
	if got != total {
		t.Fatalf("grossPayout overflow: got %d, want %d", got, total)
	}
}

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name      string
		stake     domain.Micros
		gross     domain.Micros
		feeBps    int64
		wantNet   domain.Micros
		wantHouse domain.Micros
	}{
		{"two percent of profit", 1000 * unit, 1500 * unit, 200, 1490 * unit, 10 * unit},
		{"no profit no fee", 1000 * unit, 1000 * unit, 200, 1000 * unit, 0},
		{"refund-sized gross", 1000 * unit, 900 * unit, 200, 900 * unit, 0},
		{"zero rate", 1000 * unit, 1500 * unit, 0, 1500 * unit, 0},
		{"rounding goes to house", 100, 103, 200, 102, 1}, // 2% of 3 = 0.06, fee rounds up to 1
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, house := splitFee(tt.stake, tt.gross, tt.feeBps)
			if net != tt.wantNet || house != tt.wantHouse {
				t.Errorf("splitFee(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.stake, tt.gross, tt.feeBps, net, house, tt.wantNet, tt.wantHouse)
			}
			if net+house != tt.gross {
				t.Errorf("net %d + house %d != gross %d", net, house, tt.gross)
			}
		})
	}
}
