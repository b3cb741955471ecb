package dosage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
)

const (
	medicationNotFoundWarning = "Medication not found in catalog"
	patientNotFoundWarning    = "Patient profile not found; weight and age checks skipped"
)

type medicationReader interface {
	FindMedication(ctx context.Context, id uuid.UUID) (*models.Medication, error)
}

type patientReader interface {
	FindPatient(ctx context.Context, id uuid.UUID) (*models.Patient, error)
}

// VerifyInput identifies the medication and the optional patient context.
// Explicit WeightKg/AgeYears win over values loaded from PatientID.
type VerifyInput struct {
	MedicationID uuid.UUID
	Dosage       string
	WeightKg     *float64
	AgeYears     *int
	PatientID    *uuid.UUID
}

// Service resolves catalog and patient data and runs the rule engine.
type Service struct {
	engine   *Engine
	meds     medicationReader
	patients patientReader
	now      func() time.Time
}

// NewService wires the verifier. A nil engine uses DefaultRules.
func NewService(engine *Engine, meds medicationReader, patients patientReader) (*Service, error) {
	if meds == nil {
		return nil, fmt.Errorf("medication reader required")
	}
	if patients == nil {
		return nil, fmt.Errorf("patient reader required")
	}
	if engine == nil {
		engine = NewEngine(nil)
	}
	return &Service{
		engine:   engine,
		meds:     meds,
		patients: patients,
		now:      time.Now,
	}, nil
}

// Verify returns a rule result. Unknown medications come back as a negative
// result with a warning rather than an error; only storage failures error.
func (s *Service) Verify(ctx context.Context, input VerifyInput) (*Result, error) {
	if strings.TrimSpace(input.Dosage) == "" {
		return &Result{
			IsAppropriate:   false,
			Warnings:        []string{unparseableWarning},
			Recommendations: []string{},
		}, nil
	}

	med, err := s.meds.FindMedication(ctx, input.MedicationID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return &Result{
				IsAppropriate:   false,
				Warnings:        []string{medicationNotFoundWarning},
				Recommendations: []string{},
			}, nil
		}
		return nil, err
	}

	patient := Patient{WeightKg: input.WeightKg, AgeYears: input.AgeYears}
	var notes []string
	if input.PatientID != nil {
		profile, err := s.patients.FindPatient(ctx, *input.PatientID)
		switch {
		case err == nil:
			patient = s.mergeProfile(patient, profile)
		case pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
			notes = append(notes, patientNotFoundWarning)
		default:
			return nil, err
		}
	}

	result := s.engine.Verify(Medication{
		Name:        med.Name,
		GenericName: med.GenericNameOrEmpty(),
		Strength:    med.StrengthOrEmpty(),
	}, input.Dosage, patient)
	result.Warnings = append(result.Warnings, notes...)
	return &result, nil
}

func (s *Service) mergeProfile(patient Patient, profile *models.Patient) Patient {
	if patient.WeightKg == nil && profile.WeightKg != nil {
		weight := *profile.WeightKg
		patient.WeightKg = &weight
	}
	if patient.AgeYears == nil {
		if age, ok := CalculateAge(profile.DateOfBirth, s.now()); ok {
			patient.AgeYears = &age
		}
	}
	return patient
}
