package classify

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
)

var reVersionNumber = regexp.MustCompile(`\d+(?:\.\d+){0,2}(?:-[0-9A-Za-z]+(?:\.[0-9A-Za-z]+)*)?`)

// normalizeVersion extracts the first version number from a raw declaration,
// shedding range operators and caret/tilde prefixes ("^17.0.0" → "17.0.0",
// ">=3.11,<4" → "3.11"). Returns "" when nothing version-like is present.
func normalizeVersion(raw string) string {
	return reVersionNumber.FindString(raw)
}

// sameVersion compares two normalized values, treating semver-equal forms
// like "3.1" and "3.1.0" as the same.
func sameVersion(a, b string) bool {
	if a == b {
		return true
	}
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	return errA == nil && errB == nil && va.Equal(vb)
}

// resolveVersion picks the winning candidate: highest authority wins, and
// conflicting values at that same authority resolve to VersionUnknown rather
// than a guess.
func resolveVersion(candidates []versionCandidate) string {
	best := -1
	var chosen string
	conflict := false

	for _, c := range candidates {
		v := normalizeVersion(c.value)
		if v == "" {
			continue
		}
		switch {
		case c.authority > best:
			best = c.authority
			chosen = v
			conflict = false
		case c.authority == best && !sameVersion(chosen, v):
			conflict = true
		}
	}

	if best == -1 || conflict {
		return VersionUnknown
	}
	return chosen
}
