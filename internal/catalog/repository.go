package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/db"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
)

const likeEscaper = `\`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository reads and writes catalog reference data: medications, their
// pairwise interactions and patient allergy profiles.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindMedication loads one medication by id.
func (r *Repository) FindMedication(ctx context.Context, id uuid.UUID) (*models.Medication, error) {
	var med models.Medication
	if err := r.db.WithContext(ctx).First(&med, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medication not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load medication")
	}
	return &med, nil
}

// FindMedicationByName loads a medication by exact name.
func (r *Repository) FindMedicationByName(ctx context.Context, name string) (*models.Medication, error) {
	var med models.Medication
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&med).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medication not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load medication by name")
	}
	return &med, nil
}

// ListMedicationsByIDs returns the medications found for ids, in no
// particular order. Unknown ids are simply absent.
func (r *Repository) ListMedicationsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Medication, error) {
	if len(ids) == 0 {
		return []models.Medication{}, nil
	}
	var meds []models.Medication
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&meds).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list medications")
	}
	return meds, nil
}

// MatchMedications returns medications whose name or generic name contains
// term, case-insensitively. limit <= 0 returns every match.
func (r *Repository) MatchMedications(ctx context.Context, term string, limit int) ([]models.Medication, error) {
	pattern := "%" + likeReplacer.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"

	query := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '"+likeEscaper+"' OR LOWER(COALESCE(generic_name, '')) LIKE ? ESCAPE '"+likeEscaper+"'", pattern, pattern).
		Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var meds []models.Medication
	if err := query.Find(&meds).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: match medications")
	}
	return meds, nil
}

// CreateMedication inserts a catalog entry. Stock always starts at zero;
// opening balances go through the inventory ledger.
func (r *Repository) CreateMedication(ctx context.Context, med *models.Medication) (*models.Medication, error) {
	if strings.TrimSpace(med.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "medication name is required")
	}
	med.StockQuantity = 0
	if med.MinimumStockLevel <= 0 {
		med.MinimumStockLevel = models.DefaultMinimumStockLevel
	}
	if err := r.db.WithContext(ctx).Create(med).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert medication")
	}
	return med, nil
}

// FindInteraction returns the interaction stored for the unordered pair
// (a, b), checking both orderings. It returns nil, nil when none exists.
func (r *Repository) FindInteraction(ctx context.Context, a, b uuid.UUID) (*models.DrugInteraction, error) {
	var interaction models.DrugInteraction
	err := r.db.WithContext(ctx).
		Where("(drug1_id = ? AND drug2_id = ?) OR (drug1_id = ? AND drug2_id = ?)", a, b, b, a).
		First(&interaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find interaction")
	}
	return &interaction, nil
}

// CreateInteraction stores a new pair. A pair already stored in either
// ordering is a conflict.
func (r *Repository) CreateInteraction(ctx context.Context, interaction *models.DrugInteraction) (*models.DrugInteraction, error) {
	if interaction.Drug1ID == interaction.Drug2ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "an interaction needs two different medications")
	}
	if !interaction.Severity.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid severity").
			WithDetails(map[string]any{"allowed": []enums.Severity{enums.SeverityMild, enums.SeverityModerate, enums.SeveritySevere}})
	}

	existing, err := r.FindInteraction(ctx, interaction.Drug1ID, interaction.Drug2ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "interaction already recorded for this pair")
	}

	if err := r.db.WithContext(ctx).Create(interaction).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "interaction already recorded for this pair")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert interaction")
	}
	return interaction, nil
}

// FindPatient loads a patient profile with its allergies.
func (r *Repository) FindPatient(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	var patient models.Patient
	err := r.db.WithContext(ctx).
		Preload("Allergies", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC, allergen ASC") }).
		First(&patient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "patient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load patient")
	}
	return &patient, nil
}

// CreatePatient inserts a patient profile.
func (r *Repository) CreatePatient(ctx context.Context, patient *models.Patient) (*models.Patient, error) {
	if strings.TrimSpace(patient.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "patient name is required")
	}
	if patient.WeightKg != nil && *patient.WeightKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if patient.DateOfBirth != nil && patient.DateOfBirth.After(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date of birth cannot be in the future")
	}
	if err := r.db.WithContext(ctx).Omit("Allergies").Create(patient).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert patient")
	}
	return patient, nil
}

// ListAllergies returns the patient's recorded allergies in entry order.
func (r *Repository) ListAllergies(ctx context.Context, patientID uuid.UUID) ([]models.PatientAllergy, error) {
	var allergies []models.PatientAllergy
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at ASC, allergen ASC").
		Find(&allergies).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list allergies")
	}
	return allergies, nil
}

// AddAllergy records an allergen for a patient.
func (r *Repository) AddAllergy(ctx context.Context, allergy *models.PatientAllergy) (*models.PatientAllergy, error) {
	if strings.TrimSpace(allergy.Allergen) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "allergen is required")
	}
	if !allergy.Severity.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid severity")
	}
	if err := r.db.WithContext(ctx).Create(allergy).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert allergy")
	}
	return allergy, nil
}
