package prescriptions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
)

// Repository persists prescriptions and their line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a prescriptions repository to db.
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

// PatientExists reports whether a patient row exists.
func (r *Repository) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Patient{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check patient")
	}
	return count > 0, nil
}

// Create inserts the prescription header and then its items. Associations
// are skipped so medication rows are never written from here.
func (r *Repository) Create(ctx context.Context, prescription *models.Prescription) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(prescription).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create prescription")
	}
	for i := range prescription.Items {
		prescription.Items[i].PrescriptionID = prescription.ID
	}
	if len(prescription.Items) == 0 {
		return nil
	}
	if err := db.Omit(clause.Associations).Create(&prescription.Items).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create prescription items")
	}
	return nil
}

// Find loads a prescription with items in entry order.
func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.Prescription, error) {
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

// Transition moves a pending prescription to next and stamps the matching
// timestamp column. It reports false when the row was no longer pending.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, next enums.PrescriptionStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     next,
		"updated_at": at,
	}
	switch next {
	case enums.PrescriptionStatusFilled:
		updates["filled_at"] = at
	case enums.PrescriptionStatusCancelled:
		updates["cancelled_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&models.Prescription{}).
		Where("id = ? AND status = ?", id, enums.PrescriptionStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "db: transition prescription")
	}
	return res.RowsAffected == 1, nil
}
