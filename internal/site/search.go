package site

import (
	"strings"

	"golang.org/x/text/cases"
)

// contains reports whether term occurs in s, ignoring case. An empty term
// matches everything.
func contains(s, term string) bool {
	if term == "" {
		return true
	}
	// Casers carry state and are not shared between goroutines.
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(term))
}

func normalizeTerm(term string) string {
	return strings.TrimSpace(term)
}
