package oracle

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTeam canonicalizes a team name for cross-provider matching:
// lowercase, Unicode canonical decomposition, combining marks stripped, then
// everything outside [a-z0-9] removed. Two names denote the same participant
// iff their normalized forms are identical.
func NormalizeTeam(name string) string {
	lower := strings.ToLower(name)

	// Chained transformers carry state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, lower)
	if err != nil {
		decomposed = lower
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SameTeam reports whether two raw team names normalize to the same
// participant.
func SameTeam(a, b string) bool {
	return NormalizeTeam(a) == NormalizeTeam(b)
}
