package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/api/middleware"
	"github.com/angelmondragon/rxguard-backend/api/responses"
	"github.com/angelmondragon/rxguard-backend/api/validators"
	"github.com/angelmondragon/rxguard-backend/internal/reports"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

type reportReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.InteractionReport, error)
	List(ctx context.Context, scope reports.ListScope) ([]models.InteractionReport, error)
	MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) (*models.InteractionReport, error)
}

// ReportList lists reports newest first, optionally scoped by patient_id or
// prescriber_id.
func ReportList(svc reportReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patientID, err := validators.ParseQueryUUID(r, "patient_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		prescriberID, err := validators.ParseQueryUUID(r, "prescriber_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), reports.ListScope{
			PatientID:    patientID,
			PrescriberID: prescriberID,
			Limit:        limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newReportResponses(list))
	}
}

func ReportGet(svc reportReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "reportId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newReportResponse(report))
	}
}

// ReportReview marks the report reviewed by the acting user.
func ReportReview(svc reportReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "report service unavailable"))
			return
		}

		reviewer := middleware.ActorIDFromContext(r.Context())
		if reviewer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity required"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "reportId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.MarkReviewed(r.Context(), id, *reviewer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newReportResponse(report))
	}
}
