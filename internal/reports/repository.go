package reports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
)

// ListScope narrows ListReports. At most one of PatientID and PrescriberID
// is expected; both nil lists every report.
type ListScope struct {
	PatientID    *uuid.UUID
	PrescriberID *uuid.UUID
	Limit        int
}

// Repository persists interaction reports and reads the prescription side.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a reports repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindPrescription loads a prescription with its line items in entry order.
func (r *Repository) FindPrescription(ctx context.Context, id uuid.UUID) (*models.Prescription, error) {
	var prescription models.Prescription
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Items.Medication").
		First(&prescription, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "prescription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find prescription")
	}
	return &prescription, nil
}

// FindPatient loads the prescribing patient with allergies. It returns nil,
// nil when the patient record is gone.
func (r *Repository) FindPatient(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).
		Preload("Allergies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, allergen ASC")
		}).
		First(&patient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find patient")
	}
	return &patient, nil
}

// CreateReport inserts the report header and its details together.
func (r *Repository) CreateReport(ctx context.Context, report *models.InteractionReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create interaction report")
	}
	return nil
}

func withOrderedDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// FindReport loads one report with details in finding order.
func (r *Repository) FindReport(ctx context.Context, id uuid.UUID) (*models.InteractionReport, error) {
	var report models.InteractionReport
	err := withOrderedDetails(r.db.WithContext(ctx)).First(&report, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "report not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find interaction report")
	}
	return &report, nil
}

// ListReports returns reports newest first.
func (r *Repository) ListReports(ctx context.Context, scope ListScope) ([]models.InteractionReport, error) {
	query := withOrderedDetails(r.db.WithContext(ctx)).
		Model(&models.InteractionReport{}).
		Order("interaction_reports.created_at DESC, interaction_reports.id DESC").
		Limit(scope.Limit)
	if scope.PatientID != nil || scope.PrescriberID != nil {
		query = query.Select("interaction_reports.*").
			Joins("JOIN prescriptions ON prescriptions.id = interaction_reports.prescription_id")
	}
	if scope.PatientID != nil {
		query = query.Where("prescriptions.patient_id = ?", *scope.PatientID)
	}
	if scope.PrescriberID != nil {
		query = query.Where("prescriptions.prescriber_id = ?", *scope.PrescriberID)
	}
	var reports []models.InteractionReport
	if err := query.Find(&reports).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list interaction reports")
	}
	return reports, nil
}

// SetReviewer records reviewerID on a report that has none yet. It reports
// false when the report was already reviewed or does not exist.
func (r *Repository) SetReviewer(ctx context.Context, id, reviewerID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InteractionReport{}).
		Where("id = ? AND reviewed_by_id IS NULL", id).
		Updates(map[string]any{
			"reviewed_by_id": reviewerID,
			"reviewed_at":    at,
		})
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: mark report reviewed")
	}
	return res.RowsAffected == 1, nil
}
