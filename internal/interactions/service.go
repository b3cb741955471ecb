package interactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

const (
	emptyListWarning       = "No medications supplied"
	unknownPatientWarning  = "Patient not found; allergy check skipped"
	unknownMedicationsNote = "Some medications were not found in the catalog"
)

type medicationLister interface {
	ListMedicationsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Medication, error)
}

type patientReader interface {
	FindPatient(ctx context.Context, id uuid.UUID) (*models.Patient, error)
}

// InteractionFinding is a PairFinding with display names attached.
type InteractionFinding struct {
	PairFinding
	Drug1Name string `json:"drug1_name"`
	Drug2Name string `json:"drug2_name"`
}

// CheckResult is the combined drug-drug and allergy outcome.
// HasSevereInteraction is true for any severe pair or any allergy match.
type CheckResult struct {
	Interactions         []InteractionFinding `json:"interactions"`
	Allergies            []AllergyMatch       `json:"allergies"`
	HasSevereInteraction bool                 `json:"has_severe_interaction"`
	UnknownMedicationIDs []uuid.UUID          `json:"unknown_medication_ids,omitempty"`
	Warnings             []string             `json:"warnings,omitempty"`
}

// Service runs the combined interaction check.
type Service struct {
	meds     medicationLister
	patients patientReader
	finder   Finder
	logg     *logger.Logger
}

// NewService wires the checker. finder is usually the catalog repository,
// optionally wrapped by NewCachedFinder.
func NewService(meds medicationLister, patients patientReader, finder Finder, logg *logger.Logger) (*Service, error) {
	if meds == nil {
		return nil, fmt.Errorf("medication lister required")
	}
	if patients == nil {
		return nil, fmt.Errorf("patient reader required")
	}
	if finder == nil {
		return nil, fmt.Errorf("interaction finder required")
	}
	return &Service{meds: meds, patients: patients, finder: finder, logg: logg}, nil
}

// CheckInteractions checks ids pairwise and, when patientID is set, against
// the patient's allergies. Empty input and unknown identifiers produce
// warnings, not errors.
func (s *Service) CheckInteractions(ctx context.Context, ids []uuid.UUID, patientID *uuid.UUID) (*CheckResult, error) {
	result := &CheckResult{
		Interactions: []InteractionFinding{},
		Allergies:    []AllergyMatch{},
	}

	distinct := Dedupe(ids)
	if len(distinct) == 0 {
		result.Warnings = append(result.Warnings, emptyListWarning)
		return result, nil
	}

	meds, err := s.meds.ListMedicationsByIDs(ctx, distinct)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Medication, len(meds))
	for _, med := range meds {
		byID[med.ID] = med
	}

	known := make([]uuid.UUID, 0, len(distinct))
	ordered := make([]models.Medication, 0, len(distinct))
	for _, id := range distinct {
		med, ok := byID[id]
		if !ok {
			result.UnknownMedicationIDs = append(result.UnknownMedicationIDs, id)
			continue
		}
		known = append(known, id)
		ordered = append(ordered, med)
	}
	if len(result.UnknownMedicationIDs) > 0 {
		result.Warnings = append(result.Warnings, unknownMedicationsNote)
	}

	pairs, err := CheckPairwise(ctx, known, s.finder)
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		result.Interactions = append(result.Interactions, InteractionFinding{
			PairFinding: pair,
			Drug1Name:   byID[pair.Drug1ID].Name,
			Drug2Name:   byID[pair.Drug2ID].Name,
		})
		if pair.Severity == enums.SeveritySevere {
			result.HasSevereInteraction = true
		}
	}

	if patientID != nil {
		patient, err := s.patients.FindPatient(ctx, *patientID)
		switch {
		case err == nil:
			result.Allergies = CheckAllergies(ordered, patient.Allergies)
		case pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
			result.Warnings = append(result.Warnings, unknownPatientWarning)
		default:
			return nil, err
		}
	}
	if len(result.Allergies) > 0 {
		result.HasSevereInteraction = true
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"medications":  len(known),
			"interactions": len(result.Interactions),
			"allergies":    len(result.Allergies),
		})
		s.logg.Debug(ctx, "interaction check completed")
	}
	return result, nil
}
