// Package textmatch holds the bounded, case-insensitive substring matching
// used to compare free-text medication names and allergens.
package textmatch

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded, trimmed form of s.
func Fold(s string) string {
	// cases.Caser is stateful, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

// ContainsFold reports whether needle occurs in haystack ignoring case.
// An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Fold(haystack), n)
}

// AnyContainsFold reports whether needle occurs in any of the haystacks.
func AnyContainsFold(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if ContainsFold(h, needle) {
			return true
		}
	}
	return false
}
