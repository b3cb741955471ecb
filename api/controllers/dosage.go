package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/api/responses"
	"github.com/angelmondragon/rxguard-backend/api/validators"
	"github.com/angelmondragon/rxguard-backend/internal/dosage"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

type dosageVerifier interface {
	Verify(ctx context.Context, input dosage.VerifyInput) (*dosage.Result, error)
}

type verifyDosageRequest struct {
	MedicationID uuid.UUID  `json:"medication_id" validate:"required"`
	Dosage       string     `json:"dosage" validate:"max=100"`
	WeightKg     *float64   `json:"weight_kg" validate:"omitempty,gt=0"`
	AgeYears     *int       `json:"age_years" validate:"omitempty,gte=0,max=150"`
	PatientID    *uuid.UUID `json:"patient_id"`
}

// DosageVerify runs the rule engine. An unparseable dosage is a negative
// result, not a request error.
func DosageVerify(svc dosageVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dosage service unavailable"))
			return
		}

		var payload verifyDosageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithMedicationID(ctx, payload.MedicationID.String())
		}

		result, err := svc.Verify(ctx, dosage.VerifyInput{
			MedicationID: payload.MedicationID,
			Dosage:       payload.Dosage,
			WeightKg:     payload.WeightKg,
			AgeYears:     payload.AgeYears,
			PatientID:    payload.PatientID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
