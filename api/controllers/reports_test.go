package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/internal/reports"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
)

type stubReports struct {
	scope    reports.ListScope
	reviewer uuid.UUID
}

func (s *stubReports) Get(_ context.Context, id uuid.UUID) (*models.InteractionReport, error) {
	return &models.InteractionReport{ID: id, Summary: "No interactions or dosage issues detected."}, nil
}

func (s *stubReports) List(_ context.Context, scope reports.ListScope) ([]models.InteractionReport, error) {
	s.scope = scope
	return []models.InteractionReport{{ID: uuid.New()}, {ID: uuid.New()}}, nil
}

func (s *stubReports) MarkReviewed(_ context.Context, id, reviewerID uuid.UUID) (*models.InteractionReport, error) {
	s.reviewer = reviewerID
	now := time.Now().UTC()
	return &models.InteractionReport{ID: id, ReviewedByID: &reviewerID, ReviewedAt: &now}, nil
}

func TestReportListScopes(t *testing.T) {
	stub := &stubReports{}
	patient := uuid.New()

	resp := serve(ReportList(stub, nil), httptest.NewRequest(http.MethodGet, "/api/v1/reports?patient_id="+patient.String()+"&limit=5", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if stub.scope.PatientID == nil || *stub.scope.PatientID != patient || stub.scope.PrescriberID != nil || stub.scope.Limit != 5 {
		t.Fatalf("unexpected scope %+v", stub.scope)
	}
	if data := decodeData[[]reportResponse](t, resp); len(data) != 2 {
		t.Fatalf("expected 2 reports got %d", len(data))
	}
}

func TestReportListDefaultsAndValidation(t *testing.T) {
	stub := &stubReports{}
	resp := serve(ReportList(stub, nil), httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	if resp.Code != http.StatusOK || stub.scope.Limit != 20 {
		t.Fatalf("expected default limit 20, got status %d scope %+v", resp.Code, stub.scope)
	}

	resp = serve(ReportList(stub, nil), httptest.NewRequest(http.MethodGet, "/api/v1/reports?prescriber_id=nope", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReportReviewUsesActor(t *testing.T) {
	stub := &stubReports{}
	id, actor := uuid.New(), uuid.New()

	req := withURLParam(withActor(jsonRequest(t, http.MethodPost, "/", nil), actor), "reportId", id.String())
	resp := serve(ReportReview(stub, nil), req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if stub.reviewer != actor {
		t.Fatalf("reviewer not taken from actor")
	}
	data := decodeData[reportResponse](t, resp)
	if data.ReviewedByID == nil || *data.ReviewedByID != actor {
		t.Fatalf("unexpected payload %+v", data)
	}
}

func TestReportReviewRequiresActor(t *testing.T) {
	req := withURLParam(jsonRequest(t, http.MethodPost, "/", nil), "reportId", uuid.NewString())
	resp := serve(ReportReview(&stubReports{}, nil), req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
