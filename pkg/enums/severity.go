package enums

import "fmt"

// Severity is the ordinal tier attached to interactions, allergies and findings.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

var validSeverities = []Severity{
	SeverityMild,
	SeverityModerate,
	SeveritySevere,
}

// String implements fmt.Stringer.
func (s Severity) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Severity.
func (s Severity) IsValid() bool {
	for _, candidate := range validSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

// Rank orders tiers from mild (1) to severe (3). Unknown values rank 0.
func (s Severity) Rank() int {
	for i, candidate := range validSeverities {
		if candidate == s {
			return i + 1
		}
	}
	return 0
}

// ParseSeverity converts raw input into a Severity.
func ParseSeverity(value string) (Severity, error) {
	for _, candidate := range validSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid severity %q", value)
}
