package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/api/middleware"
	"github.com/angelmondragon/rxguard-backend/api/responses"
	"github.com/angelmondragon/rxguard-backend/api/validators"
	"github.com/angelmondragon/rxguard-backend/internal/ledger"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/pagination"
)

type inventoryLedger interface {
	AdjustStock(ctx context.Context, input ledger.AdjustStockInput) (*ledger.AdjustStockResult, error)
	LowStock(ctx context.Context, threshold *int) ([]models.Medication, error)
	RecentEntries(ctx context.Context, params pagination.Params) (pagination.Page[models.InventoryLogEntry], error)
	History(ctx context.Context, medicationID uuid.UUID) ([]models.InventoryLogEntry, error)
}

type adjustStockRequest struct {
	MedicationID uuid.UUID `json:"medication_id" validate:"required"`
	Delta        int       `json:"delta" validate:"required"`
	Reason       string    `json:"reason" validate:"required,max=255"`
}

// InventoryAdjust applies one signed stock movement. A movement that would
// take stock negative is rejected with INSUFFICIENT_STOCK.
func InventoryAdjust(svc inventoryLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithMedicationID(ctx, payload.MedicationID.String())
		}

		result, err := svc.AdjustStock(ctx, ledger.AdjustStockInput{
			MedicationID: payload.MedicationID,
			Delta:        payload.Delta,
			Reason:       validators.SanitizeString(payload.Reason, 255),
			ActorID:      middleware.ActorIDFromContext(ctx),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAdjustStockResponse(result))
	}
}

// InventoryLowStock lists medications below threshold, or below their own
// minimum when threshold is absent.
func InventoryLowStock(svc inventoryLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		threshold, err := validators.ParseQueryOptionalInt(r, "threshold", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meds, err := svc.LowStock(r.Context(), threshold)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newMedicationResponses(meds))
	}
}

func InventoryLogs(svc inventoryLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.RecentEntries(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLogPageResponse(page))
	}
}

func InventoryHistory(svc inventoryLedger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "medicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.History(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLogEntryResponses(entries))
	}
}
