package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/internal/dosage"
	"github.com/angelmondragon/rxguard-backend/internal/interactions"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
)

type stubDosageVerifier struct {
	input dosage.VerifyInput
}

func (s *stubDosageVerifier) Verify(_ context.Context, input dosage.VerifyInput) (*dosage.Result, error) {
	s.input = input
	return &dosage.Result{
		IsAppropriate:   false,
		Warnings:        []string{"Dosage exceeds weight-based limit"},
		Recommendations: []string{},
	}, nil
}

func TestDosageVerify(t *testing.T) {
	stub := &stubDosageVerifier{}
	medID := uuid.New()
	body := map[string]any{"medication_id": medID, "dosage": "800mg", "weight_kg": 20.5}

	resp := serve(DosageVerify(stub, nil), jsonRequest(t, http.MethodPost, "/api/v1/dosage/verify", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if stub.input.MedicationID != medID || stub.input.Dosage != "800mg" {
		t.Fatalf("unexpected input %+v", stub.input)
	}
	if stub.input.WeightKg == nil || *stub.input.WeightKg != 20.5 {
		t.Fatalf("weight not forwarded")
	}
	if stub.input.AgeYears != nil {
		t.Fatalf("age should be absent")
	}
	data := decodeData[dosage.Result](t, resp)
	if data.IsAppropriate || len(data.Warnings) != 1 {
		t.Fatalf("unexpected result %+v", data)
	}
}

func TestDosageVerifyValidation(t *testing.T) {
	cases := map[string]map[string]any{
		"missing medication": {"dosage": "10mg"},
		"negative weight":    {"medication_id": uuid.New(), "dosage": "10mg", "weight_kg": -3},
		"negative age":       {"medication_id": uuid.New(), "dosage": "10mg", "age_years": -1},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := serve(DosageVerify(&stubDosageVerifier{}, nil), jsonRequest(t, http.MethodPost, "/api/v1/dosage/verify", body))
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
		})
	}
}

type stubInteractionChecker struct {
	ids       []uuid.UUID
	patientID *uuid.UUID
	result    *interactions.CheckResult
}

func (s *stubInteractionChecker) CheckInteractions(_ context.Context, ids []uuid.UUID, patientID *uuid.UUID) (*interactions.CheckResult, error) {
	s.ids = ids
	s.patientID = patientID
	return s.result, nil
}

func TestInteractionsCheck(t *testing.T) {
	a, b, patient := uuid.New(), uuid.New(), uuid.New()
	stub := &stubInteractionChecker{result: &interactions.CheckResult{
		Interactions: []interactions.InteractionFinding{{
			PairFinding: interactions.PairFinding{Drug1ID: a, Drug2ID: b, Severity: enums.SeveritySevere, Description: "bleeding"},
			Drug1Name:   "Warfarin",
			Drug2Name:   "Aspirin",
		}},
		Allergies:            []interactions.AllergyMatch{},
		HasSevereInteraction: true,
	}}

	body := map[string]any{"medication_ids": []uuid.UUID{a, b}, "patient_id": patient}
	resp := serve(InteractionsCheck(stub, nil), jsonRequest(t, http.MethodPost, "/api/v1/interactions/check", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(stub.ids) != 2 || stub.patientID == nil || *stub.patientID != patient {
		t.Fatalf("unexpected args %v %v", stub.ids, stub.patientID)
	}
	data := decodeData[interactions.CheckResult](t, resp)
	if !data.HasSevereInteraction || len(data.Interactions) != 1 || data.Interactions[0].Drug1Name != "Warfarin" {
		t.Fatalf("unexpected result %+v", data)
	}
}

func TestInteractionsCheckRejectsMalformedIDs(t *testing.T) {
	body := map[string]any{"medication_ids": []string{"not-a-uuid"}}
	resp := serve(InteractionsCheck(&stubInteractionChecker{}, nil), jsonRequest(t, http.MethodPost, "/api/v1/interactions/check", body))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
