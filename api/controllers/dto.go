package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/rxguard-backend/internal/catalog"
	"github.com/angelmondragon/rxguard-backend/internal/ledger"
	"github.com/angelmondragon/rxguard-backend/internal/prescriptions"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	"github.com/angelmondragon/rxguard-backend/pkg/pagination"
)

type medicationResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	GenericName       *string   `json:"generic_name,omitempty"`
	Description       *string   `json:"description,omitempty"`
	DosageForm        *string   `json:"dosage_form,omitempty"`
	Strength          *string   `json:"strength,omitempty"`
	StockQuantity     int       `json:"stock_quantity"`
	MinimumStockLevel int       `json:"minimum_stock_level"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func newMedicationResponse(m models.Medication) medicationResponse {
	return medicationResponse{
		ID:                m.ID,
		Name:              m.Name,
		GenericName:       m.GenericName,
		Description:       m.Description,
		DosageForm:        m.DosageForm,
		Strength:          m.Strength,
		StockQuantity:     m.StockQuantity,
		MinimumStockLevel: m.MinimumStockLevel,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func newMedicationResponses(meds []models.Medication) []medicationResponse {
	out := make([]medicationResponse, 0, len(meds))
	for _, m := range meds {
		out = append(out, newMedicationResponse(m))
	}
	return out
}

type resolvedMedicationResponse struct {
	SourceIndex int                         `json:"source_index"`
	Extracted   catalog.ExtractedMedication `json:"extracted"`
	Medication  medicationResponse          `json:"medication"`
}

type resolutionResponse struct {
	Resolved  []resolvedMedicationResponse  `json:"resolved"`
	Unmatched []catalog.UnmatchedMedication `json:"unmatched"`
}

func newResolutionResponse(res *catalog.Resolution) resolutionResponse {
	out := resolutionResponse{
		Resolved:  []resolvedMedicationResponse{},
		Unmatched: []catalog.UnmatchedMedication{},
	}
	if res == nil {
		return out
	}
	for _, r := range res.Resolved {
		out.Resolved = append(out.Resolved, resolvedMedicationResponse{
			SourceIndex: r.SourceIndex,
			Extracted:   r.Extracted,
			Medication:  newMedicationResponse(r.Medication),
		})
	}
	out.Unmatched = append(out.Unmatched, res.Unmatched...)
	return out
}

type prescriptionItemResponse struct {
	ID             uuid.UUID `json:"id"`
	MedicationID   uuid.UUID `json:"medication_id"`
	MedicationName string    `json:"medication_name,omitempty"`
	Position       int       `json:"position"`
	Dosage         string    `json:"dosage"`
	Frequency      string    `json:"frequency"`
	Duration       *string   `json:"duration,omitempty"`
	Instructions   *string   `json:"instructions,omitempty"`
	Quantity       int       `json:"quantity"`
}

type prescriptionResponse struct {
	ID           uuid.UUID                  `json:"id"`
	PatientID    uuid.UUID                  `json:"patient_id"`
	PrescriberID *uuid.UUID                 `json:"prescriber_id,omitempty"`
	Status       enums.PrescriptionStatus   `json:"status"`
	Notes        *string                    `json:"notes,omitempty"`
	PrescribedAt time.Time                  `json:"prescribed_at"`
	FilledAt     *time.Time                 `json:"filled_at,omitempty"`
	CancelledAt  *time.Time                 `json:"cancelled_at,omitempty"`
	Items        []prescriptionItemResponse `json:"items"`
	CreatedAt    time.Time                  `json:"created_at"`
}

func newPrescriptionResponse(p *models.Prescription) *prescriptionResponse {
	if p == nil {
		return nil
	}
	items := make([]prescriptionItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, prescriptionItemResponse{
			ID:             item.ID,
			MedicationID:   item.MedicationID,
			MedicationName: item.Medication.Name,
			Position:       item.Position,
			Dosage:         item.Dosage,
			Frequency:      item.Frequency,
			Duration:       item.Duration,
			Instructions:   item.Instructions,
			Quantity:       item.Quantity,
		})
	}
	return &prescriptionResponse{
		ID:           p.ID,
		PatientID:    p.PatientID,
		PrescriberID: p.PrescriberID,
		Status:       p.Status,
		Notes:        p.Notes,
		PrescribedAt: p.PrescribedAt,
		FilledAt:     p.FilledAt,
		CancelledAt:  p.CancelledAt,
		Items:        items,
		CreatedAt:    p.CreatedAt,
	}
}

type createPrescriptionResponse struct {
	Prescription *prescriptionResponse       `json:"prescription"`
	Skipped      []prescriptions.SkippedItem `json:"skipped"`
	Report       *reportResponse             `json:"report,omitempty"`
}

func newCreatePrescriptionResponse(res *prescriptions.CreateResult) createPrescriptionResponse {
	out := createPrescriptionResponse{Skipped: []prescriptions.SkippedItem{}}
	if res == nil {
		return out
	}
	out.Prescription = newPrescriptionResponse(res.Prescription)
	out.Skipped = append(out.Skipped, res.Skipped...)
	out.Report = newReportResponse(res.Report)
	return out
}

type reportDetailResponse struct {
	ID             uuid.UUID         `json:"id"`
	Position       int               `json:"position"`
	Drug1ID        *uuid.UUID        `json:"drug1_id,omitempty"`
	Drug2ID        *uuid.UUID        `json:"drug2_id,omitempty"`
	Type           enums.FindingType `json:"type"`
	Severity       enums.Severity    `json:"severity"`
	Description    string            `json:"description"`
	Recommendation string            `json:"recommendation"`
}

type reportResponse struct {
	ID              uuid.UUID              `json:"id"`
	PrescriptionID  uuid.UUID              `json:"prescription_id"`
	Summary         string                 `json:"summary"`
	HasInteractions bool                   `json:"has_interactions"`
	HasDosageIssues bool                   `json:"has_dosage_issues"`
	ReviewedByID    *uuid.UUID             `json:"reviewed_by_id,omitempty"`
	ReviewedAt      *time.Time             `json:"reviewed_at,omitempty"`
	Details         []reportDetailResponse `json:"details"`
	CreatedAt       time.Time              `json:"created_at"`
}

func newReportResponse(r *models.InteractionReport) *reportResponse {
	if r == nil {
		return nil
	}
	details := make([]reportDetailResponse, 0, len(r.Details))
	for _, d := range r.Details {
		details = append(details, reportDetailResponse{
			ID:             d.ID,
			Position:       d.Position,
			Drug1ID:        d.Drug1ID,
			Drug2ID:        d.Drug2ID,
			Type:           d.Type,
			Severity:       d.Severity,
			Description:    d.Description,
			Recommendation: d.Recommendation,
		})
	}
	return &reportResponse{
		ID:              r.ID,
		PrescriptionID:  r.PrescriptionID,
		Summary:         r.Summary,
		HasInteractions: r.HasInteractions,
		HasDosageIssues: r.HasDosageIssues,
		ReviewedByID:    r.ReviewedByID,
		ReviewedAt:      r.ReviewedAt,
		Details:         details,
		CreatedAt:       r.CreatedAt,
	}
}

func newReportResponses(list []models.InteractionReport) []*reportResponse {
	out := make([]*reportResponse, 0, len(list))
	for i := range list {
		out = append(out, newReportResponse(&list[i]))
	}
	return out
}

type logEntryResponse struct {
	ID             uuid.UUID  `json:"id"`
	MedicationID   uuid.UUID  `json:"medication_id"`
	QuantityChange int        `json:"quantity_change"`
	RecordedByID   *uuid.UUID `json:"recorded_by_id,omitempty"`
	Reason         string     `json:"reason"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newLogEntryResponse(e models.InventoryLogEntry) logEntryResponse {
	return logEntryResponse{
		ID:             e.ID,
		MedicationID:   e.MedicationID,
		QuantityChange: e.QuantityChange,
		RecordedByID:   e.RecordedByID,
		Reason:         e.Reason,
		CreatedAt:      e.CreatedAt,
	}
}

func newLogEntryResponses(entries []models.InventoryLogEntry) []logEntryResponse {
	out := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, newLogEntryResponse(e))
	}
	return out
}

type adjustStockResponse struct {
	Entry         *logEntryResponse `json:"entry"`
	StockQuantity int               `json:"stock_quantity"`
}

func newAdjustStockResponse(res *ledger.AdjustStockResult) adjustStockResponse {
	out := adjustStockResponse{}
	if res == nil {
		return out
	}
	out.StockQuantity = res.StockQuantity
	if res.Entry != nil {
		entry := newLogEntryResponse(*res.Entry)
		out.Entry = &entry
	}
	return out
}

type logPageResponse struct {
	Items      []logEntryResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func newLogPageResponse(page pagination.Page[models.InventoryLogEntry]) logPageResponse {
	return logPageResponse{
		Items:      newLogEntryResponses(page.Items),
		NextCursor: page.NextCursor,
	}
}
