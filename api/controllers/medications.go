package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/rxguard-backend/api/responses"
	"github.com/angelmondragon/rxguard-backend/api/validators"
	"github.com/angelmondragon/rxguard-backend/internal/catalog"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

const maxQueryLength = 100

type medicationCatalog interface {
	Search(ctx context.Context, query string, limit int) ([]models.Medication, error)
	ResolveExtracted(ctx context.Context, records []catalog.ExtractedMedication) (*catalog.Resolution, error)
}

// MedicationSearch matches the query parameter against catalog names.
func MedicationSearch(svc medicationCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := validators.SanitizeString(r.URL.Query().Get("query"), maxQueryLength)

		meds, err := svc.Search(r.Context(), query, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMedicationResponses(meds))
	}
}

type resolveMedicationsRequest struct {
	Medications []extractedMedicationPayload `json:"medications" validate:"required,max=50,dive"`
}

type extractedMedicationPayload struct {
	Name         string `json:"name" validate:"max=200"`
	Dosage       string `json:"dosage" validate:"max=100"`
	Frequency    string `json:"frequency" validate:"max=100"`
	Instructions string `json:"instructions" validate:"max=500"`
}

// MedicationResolve maps extracted medication records onto the catalog.
func MedicationResolve(svc medicationCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload resolveMedicationsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records := make([]catalog.ExtractedMedication, 0, len(payload.Medications))
		for _, m := range payload.Medications {
			records = append(records, catalog.ExtractedMedication{
				Name:         validators.SanitizeString(m.Name, 200),
				Dosage:       validators.SanitizeString(m.Dosage, 100),
				Frequency:    validators.SanitizeString(m.Frequency, 100),
				Instructions: validators.SanitizeString(m.Instructions, 500),
			})
		}

		resolution, err := svc.ResolveExtracted(r.Context(), records)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newResolutionResponse(resolution))
	}
}
