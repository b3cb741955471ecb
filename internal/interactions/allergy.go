package interactions

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	"github.com/angelmondragon/rxguard-backend/pkg/textmatch"
)

// AllergyMatch is a medication whose name or generic name contains one of
// the patient's recorded allergens. Severity is the stored allergy tier; any
// match blocks regardless of it.
type AllergyMatch struct {
	MedicationID   uuid.UUID      `json:"medication_id"`
	MedicationName string         `json:"medication_name"`
	Allergen       string         `json:"allergen"`
	Severity       enums.Severity `json:"severity"`
	Reaction       string         `json:"reaction,omitempty"`
}

// CheckAllergies matches each medication against each allergy, in
// medication-major order. Blank allergens never match.
func CheckAllergies(meds []models.Medication, allergies []models.PatientAllergy) []AllergyMatch {
	matches := []AllergyMatch{}
	for _, med := range meds {
		for _, allergy := range allergies {
			if !textmatch.AnyContainsFold(allergy.Allergen, med.Name, med.GenericNameOrEmpty()) {
				continue
			}
			match := AllergyMatch{
				MedicationID:   med.ID,
				MedicationName: med.Name,
				Allergen:       allergy.Allergen,
				Severity:       allergy.Severity,
			}
			if allergy.Reaction != nil {
				match.Reaction = *allergy.Reaction
			}
			matches = append(matches, match)
		}
	}
	return matches
}
