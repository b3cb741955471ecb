package prescriptions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/internal/ledger"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

const skippedUnknownMedication = "medication not found in catalog"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type medicationLister interface {
	ListMedicationsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Medication, error)
}

type stockAdjuster interface {
	AdjustStockInTx(ctx context.Context, tx *gorm.DB, input ledger.AdjustStockInput) (*ledger.AdjustStockResult, error)
}

type reportGenerator interface {
	GenerateInTx(ctx context.Context, tx *gorm.DB, prescriptionID uuid.UUID) (*models.InteractionReport, error)
	Observe(ctx context.Context, report *models.InteractionReport)
}

// ItemInput is one requested line item.
type ItemInput struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	Duration     *string   `json:"duration,omitempty"`
	Instructions *string   `json:"instructions,omitempty"`
	Quantity     int       `json:"quantity,omitempty"`
}

// CreateInput is a confirmed medication list for one patient.
type CreateInput struct {
	PatientID      uuid.UUID
	PrescriberID   *uuid.UUID
	Notes          *string
	Items          []ItemInput
	GenerateReport bool
}

// SkippedItem is a requested line that was not stored.
type SkippedItem struct {
	Index        int       `json:"index"`
	MedicationID uuid.UUID `json:"medication_id"`
	Reason       string    `json:"reason"`
}

// CreateResult carries the stored prescription, any skipped lines and the
// report when one was requested and the prescription has items.
type CreateResult struct {
	Prescription *models.Prescription      `json:"prescription"`
	Skipped      []SkippedItem             `json:"skipped"`
	Report       *models.InteractionReport `json:"report,omitempty"`
}

// Options configures the prescriptions service.
type Options struct {
	// UnitsPerItem scales each line's quantity into ledger units.
	UnitsPerItem int
	Reports      reportGenerator
	Logger       *logger.Logger
	Now          func() time.Time
}

// Service manages the prescription lifecycle.
type Service struct {
	repo         *Repository
	tx           txRunner
	meds         medicationLister
	stock        stockAdjuster
	reports      reportGenerator
	unitsPerItem int
	logg         *logger.Logger
	now          func() time.Time
}

// NewService wires the prescription lifecycle. opts.Reports may be nil, in
// which case CreateInput.GenerateReport is rejected.
func NewService(repo *Repository, tx txRunner, meds medicationLister, stock stockAdjuster, opts Options) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("prescriptions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if meds == nil {
		return nil, fmt.Errorf("medication lister required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	units := opts.UnitsPerItem
	if units <= 0 {
		units = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:         repo,
		tx:           tx,
		meds:         meds,
		stock:        stock,
		reports:      opts.Reports,
		unitsPerItem: units,
		logg:         opts.Logger,
		now:          now,
	}, nil
}

// Create stores a pending prescription. Lines naming unknown medications are
// skipped and reported back; they never fail the call.
func (s *Service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if input.PatientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient id is required")
	}
	if input.GenerateReport && s.reports == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "report generation is not configured")
	}
	exists, err := s.repo.PatientExists(ctx, input.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient not found")
	}

	known, err := s.knownMedications(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	prescription := &models.Prescription{
		PatientID:    input.PatientID,
		PrescriberID: input.PrescriberID,
		Notes:        input.Notes,
		Status:       enums.PrescriptionStatusPending,
		PrescribedAt: s.now().UTC(),
	}
	result := &CreateResult{Prescription: prescription, Skipped: []SkippedItem{}}
	for i, item := range input.Items {
		if _, ok := known[item.MedicationID]; !ok {
			result.Skipped = append(result.Skipped, SkippedItem{
				Index:        i,
				MedicationID: item.MedicationID,
				Reason:       skippedUnknownMedication,
			})
			continue
		}
		prescription.Items = append(prescription.Items, models.PrescriptionItem{
			MedicationID: item.MedicationID,
			Position:     len(prescription.Items),
			Dosage:       strings.TrimSpace(item.Dosage),
			Frequency:    strings.TrimSpace(item.Frequency),
			Duration:     item.Duration,
			Instructions: item.Instructions,
			Quantity:     item.Quantity,
		})
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, prescription); err != nil {
			return err
		}
		if !input.GenerateReport {
			return nil
		}
		report, err := s.reports.GenerateInTx(ctx, tx, prescription.ID)
		if err != nil {
			return err
		}
		result.Report = report
		return nil
	}); err != nil {
		return nil, asDependency(err, "create prescription")
	}

	if s.logg != nil {
		logCtx := s.logg.WithPrescriptionID(ctx, prescription.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{"items": len(prescription.Items), "skipped": len(result.Skipped)})
		s.logg.Info(logCtx, "prescription created")
	}
	if result.Report != nil {
		s.reports.Observe(ctx, result.Report)
	}
	return result, nil
}

func (s *Service) knownMedications(ctx context.Context, items []ItemInput) (map[uuid.UUID]struct{}, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.MedicationID != uuid.Nil {
			ids = append(ids, item.MedicationID)
		}
	}
	known := make(map[uuid.UUID]struct{}, len(ids))
	if len(ids) == 0 {
		return known, nil
	}
	meds, err := s.meds.ListMedicationsByIDs(ctx, ids)
	if err != nil {
		return nil, asDependency(err, "list medications")
	}
	for _, med := range meds {
		known[med.ID] = struct{}{}
	}
	return known, nil
}

// Get returns a prescription with its items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Prescription, error) {
	return s.repo.Find(ctx, id)
}

// Fulfill marks a pending prescription filled and dispenses every line
// through the ledger in the same transaction. Any rejected decrement rolls
// the whole fulfillment back.
func (s *Service) Fulfill(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.Prescription, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		prescription, err := repo.Find(ctx, id)
		if err != nil {
			return err
		}
		if err := s.transition(ctx, repo, prescription, enums.PrescriptionStatusFilled); err != nil {
			return err
		}
		reason := fmt.Sprintf("Dispensed for prescription %s", prescription.ID)
		for _, item := range prescription.Items {
			quantity := item.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			if _, err := s.stock.AdjustStockInTx(ctx, tx, ledger.AdjustStockInput{
				MedicationID: item.MedicationID,
				Delta:        -quantity * s.unitsPerItem,
				Reason:       reason,
				ActorID:      actorID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if s.logg != nil && pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
			s.logg.Warn(s.logg.WithPrescriptionID(ctx, id.String()), "fulfillment rolled back on insufficient stock")
		}
		return nil, asDependency(err, "fulfill prescription")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithPrescriptionID(ctx, id.String()), "prescription filled")
	}
	return s.repo.Find(ctx, id)
}

// Cancel moves a pending prescription to cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*models.Prescription, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		prescription, err := repo.Find(ctx, id)
		if err != nil {
			return err
		}
		return s.transition(ctx, repo, prescription, enums.PrescriptionStatusCancelled)
	})
	if err != nil {
		return nil, asDependency(err, "cancel prescription")
	}
	return s.repo.Find(ctx, id)
}

func (s *Service) transition(ctx context.Context, repo *Repository, prescription *models.Prescription, next enums.PrescriptionStatus) error {
	if !prescription.Status.CanTransitionTo(next) {
		return stateConflict(prescription.Status, next)
	}
	moved, err := repo.Transition(ctx, prescription.ID, next, s.now().UTC())
	if err != nil {
		return err
	}
	if !moved {
		return stateConflict(prescription.Status, next)
	}
	return nil
}

func stateConflict(from, to enums.PrescriptionStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move prescription from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func asDependency(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
