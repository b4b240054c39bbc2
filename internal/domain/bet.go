package domain

import "time"

// Bet is a single stake locked into one outcome of one market. Claimed and
// refunded are mutually exclusive and each settable at most once.
type Bet struct {
	ID        int64
	Owner     string // bettor account address
	MarketID  int64
	Outcome   uint8
	Amount    Micros
	Claimed   bool
	Refunded  bool
	PlacedAt  time.Time
	SettledAt *time.Time // when the bet was claimed or refunded
}
