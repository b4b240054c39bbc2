package domain

import (
	"context"
	"time"
)

// ResultProvider is a read-only source of real-world match results. The
// engine matches markets against the listing by normalized team names; a
// provider never decides outcomes on its own.
type ResultProvider interface {
	// Name returns a stable identifier for the provider (e.g. "oddsapi").
	Name() string

	// FixturesForDay returns the provider's event listing for the calendar
	// day containing the given time, including unfinished fixtures. An error
	// means the provider could not answer at all; the caller treats it as an
	// abstention for every market in the cycle.
	FixturesForDay(ctx context.Context, day time.Time) ([]FixtureResult, error)
}
