package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/api/responses"
	"github.com/angelmondragon/rxguard-backend/api/validators"
	"github.com/angelmondragon/rxguard-backend/internal/interactions"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

type interactionChecker interface {
	CheckInteractions(ctx context.Context, ids []uuid.UUID, patientID *uuid.UUID) (*interactions.CheckResult, error)
}

type checkInteractionsRequest struct {
	MedicationIDs []uuid.UUID `json:"medication_ids" validate:"max=100"`
	PatientID     *uuid.UUID  `json:"patient_id"`
}

func InteractionsCheck(svc interactionChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "interaction service unavailable"))
			return
		}

		var payload checkInteractionsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckInteractions(r.Context(), payload.MedicationIDs, payload.PatientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
