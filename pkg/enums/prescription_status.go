package enums

import "fmt"

// PrescriptionStatus tracks the lifecycle of a prescription.
type PrescriptionStatus string

const (
	PrescriptionStatusPending   PrescriptionStatus = "pending"
	PrescriptionStatusFilled    PrescriptionStatus = "filled"
	PrescriptionStatusCancelled PrescriptionStatus = "cancelled"
)

var validPrescriptionStatuses = []PrescriptionStatus{
	PrescriptionStatusPending,
	PrescriptionStatusFilled,
	PrescriptionStatusCancelled,
}

// String implements fmt.Stringer.
func (p PrescriptionStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PrescriptionStatus.
func (p PrescriptionStatus) IsValid() bool {
	for _, candidate := range validPrescriptionStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (p PrescriptionStatus) IsTerminal() bool {
	return p == PrescriptionStatusFilled || p == PrescriptionStatusCancelled
}

// CanTransitionTo reports whether moving from p to next is allowed.
// Only pending prescriptions move, and only to filled or cancelled.
func (p PrescriptionStatus) CanTransitionTo(next PrescriptionStatus) bool {
	if p != PrescriptionStatusPending {
		return false
	}
	return next == PrescriptionStatusFilled || next == PrescriptionStatusCancelled
}

// ParsePrescriptionStatus converts raw input into a PrescriptionStatus.
func ParsePrescriptionStatus(value string) (PrescriptionStatus, error) {
	for _, candidate := range validPrescriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid prescription status %q", value)
}
