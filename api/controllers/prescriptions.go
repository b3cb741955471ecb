package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/api/middleware"
	"github.com/angelmondragon/rxguard-backend/api/responses"
	"github.com/angelmondragon/rxguard-backend/api/validators"
	"github.com/angelmondragon/rxguard-backend/internal/prescriptions"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

type prescriptionManager interface {
	Create(ctx context.Context, input prescriptions.CreateInput) (*prescriptions.CreateResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Prescription, error)
	Fulfill(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Prescription, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Prescription, error)
}

type reportGenerator interface {
	Generate(ctx context.Context, prescriptionID uuid.UUID) (*models.InteractionReport, error)
}

type createPrescriptionRequest struct {
	PatientID      uuid.UUID                 `json:"patient_id" validate:"required"`
	Notes          *string                   `json:"notes" validate:"omitempty,max=2000"`
	GenerateReport bool                      `json:"generate_report"`
	Items          []prescriptionItemPayload `json:"items" validate:"max=50,dive"`
}

type prescriptionItemPayload struct {
	MedicationID uuid.UUID `json:"medication_id" validate:"required"`
	Dosage       string    `json:"dosage" validate:"required,max=100"`
	Frequency    string    `json:"frequency" validate:"required,max=100"`
	Duration     *string   `json:"duration" validate:"omitempty,max=100"`
	Instructions *string   `json:"instructions" validate:"omitempty,max=500"`
	Quantity     int       `json:"quantity" validate:"omitempty,min=1"`
}

func (p createPrescriptionRequest) toInput(prescriberID *uuid.UUID) prescriptions.CreateInput {
	items := make([]prescriptions.ItemInput, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, prescriptions.ItemInput{
			MedicationID: item.MedicationID,
			Dosage:       validators.SanitizeString(item.Dosage, 100),
			Frequency:    validators.SanitizeString(item.Frequency, 100),
			Duration:     item.Duration,
			Instructions: item.Instructions,
			Quantity:     item.Quantity,
		})
	}
	return prescriptions.CreateInput{
		PatientID:      p.PatientID,
		PrescriberID:   prescriberID,
		Notes:          p.Notes,
		Items:          items,
		GenerateReport: p.GenerateReport,
	}
}

// PrescriptionCreate stores a pending prescription. The acting user, when
// known, is recorded as the prescriber.
func PrescriptionCreate(svc prescriptionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prescription service unavailable"))
			return
		}

		var payload createPrescriptionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), payload.toInput(middleware.ActorIDFromContext(r.Context())))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCreatePrescriptionResponse(result))
	}
}

func PrescriptionGet(svc prescriptionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prescription service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "prescriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prescription, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPrescriptionResponse(prescription))
	}
}

// PrescriptionFulfill dispenses a pending prescription through the ledger.
func PrescriptionFulfill(svc prescriptionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prescription service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "prescriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPrescriptionID(ctx, id.String())
		}

		prescription, err := svc.Fulfill(ctx, id, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPrescriptionResponse(prescription))
	}
}

func PrescriptionCancel(svc prescriptionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prescription service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "prescriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPrescriptionID(ctx, id.String())
		}

		prescription, err := svc.Cancel(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPrescriptionResponse(prescription))
	}
}

// PrescriptionReport generates a fresh safety report. A prescription with
// no items has nothing to report and answers with null data.
func PrescriptionReport(svc reportGenerator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "prescriptionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithPrescriptionID(ctx, id.String())
		}

		report, err := svc.Generate(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if report == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newReportResponse(report))
	}
}
