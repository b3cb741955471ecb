package enums

import "fmt"

// FindingType classifies one InteractionDetail row.
type FindingType string

const (
	FindingTypeDrugDrug FindingType = "drug-drug"
	FindingTypeAllergy  FindingType = "allergy"
	FindingTypeDosage   FindingType = "dosage"
)

var validFindingTypes = []FindingType{
	FindingTypeDrugDrug,
	FindingTypeAllergy,
	FindingTypeDosage,
}

// String implements fmt.Stringer.
func (f FindingType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FindingType.
func (f FindingType) IsValid() bool {
	for _, candidate := range validFindingTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFindingType converts raw input into a FindingType.
func ParseFindingType(value string) (FindingType, error) {
	for _, candidate := range validFindingTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid finding type %q", value)
}
