package ledger

import (
	"math/big"

	"github.com/alanyoungcy/paribet/internal/domain"
)

// Monetary amounts carry 6 implied decimal places (stablecoin minor units).
// Odds carry 2 implied decimal places for display (150 = 1.50x). Payout math
// stays in the 6-decimal base unit end to end; intermediate products go
// through big.Int because stake*total can exceed int64.

const (
	oddsScale = 100
	feeScale  = 10_000 // fee rates are basis points
)

// CentiOdds returns the multiplicative payout factor for one outcome,
// totalPool/outcomePool at 2 implied decimals, truncated. A zero outcome
// pool yields the 0 sentinel rather than a division fault.
func CentiOdds(totalPool, outcomePool domain.Micros) int64 {
	if outcomePool <= 0 || totalPool <= 0 {
		return 0
	}
	n := new(big.Int).SetInt64(int64(totalPool))
	n.Mul(n, big.NewInt(oddsScale))
	n.Quo(n, big.NewInt(int64(outcomePool)))
	if !n.IsInt64() {
		return 0
	}
	return n.Int64()
}

// grossPayout returns stake*totalPool/outcomePool truncated toward zero.
// The sub-micro dust dropped here stays in the pool.
func grossPayout(stake, totalPool, outcomePool domain.Micros) domain.Micros {
	if outcomePool <= 0 {
		return 0
	}
	n := new(big.Int).SetInt64(int64(stake))
	n.Mul(n, big.NewInt(int64(totalPool)))
	n.Quo(n, big.NewInt(int64(outcomePool)))
	if !n.IsInt64() {
		return 0
	}
	return domain.Micros(n.Int64())
}

// splitFee divides a gross payout into the bettor's credit and the house cut.
// The fee applies to the profit portion only (gross minus stake). The fee
// rounds up so the credited payout truncates toward zero and the rounding
// remainder accrues to the house, keeping net+house == gross exactly.
func splitFee(stake, gross domain.Micros, feeBps int64) (net, house domain.Micros) {
	profit := gross - stake
	if profit <= 0 || feeBps <= 0 {
		return gross, 0
	}
	n := new(big.Int).SetInt64(int64(profit))
	n.Mul(n, big.NewInt(feeBps))
	q, r := new(big.Int).QuoRem(n, big.NewInt(feeScale), new(big.Int))
	fee := domain.Micros(q.Int64())
	if r.Sign() != 0 {
		fee++
	}
	if fee > profit {
		fee = profit
	}
	return gross - fee, fee
}
