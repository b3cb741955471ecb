package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/pagination"
)

// Drift is a medication whose stored stock disagrees with its ledger sum.
type Drift struct {
	MedicationID  uuid.UUID `json:"medication_id" gorm:"column:medication_id"`
	Name          string    `json:"name" gorm:"column:name"`
	StockQuantity int       `json:"stock_quantity" gorm:"column:stock_quantity"`
	LedgerTotal   int       `json:"ledger_total" gorm:"column:ledger_total"`
}

// Repository manages persistence for stock and the inventory log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ApplyDelta(ctx context.Context, medicationID uuid.UUID, delta int) (bool, error)
	StockOf(ctx context.Context, medicationID uuid.UUID) (int, error)
	Append(ctx context.Context, entry *models.InventoryLogEntry) error
	ListRecent(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.InventoryLogEntry, error)
	ListByMedication(ctx context.Context, medicationID uuid.UUID) ([]models.InventoryLogEntry, error)
	ListBelow(ctx context.Context, threshold *int) ([]models.Medication, error)
	ListDrift(ctx context.Context) ([]Drift, error)
}

// ErrMedicationNotFound is returned by StockOf for unknown ids.
var ErrMedicationNotFound = errors.New("medication not found")

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ApplyDelta adds delta to the stored stock only if the result stays
// non-negative. The guard lives in the UPDATE so concurrent adjustments to
// one medication serialize on the row.
func (r *repository) ApplyDelta(ctx context.Context, medicationID uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Medication{}).
		Where("id = ? AND stock_quantity + ? >= 0", medicationID, delta).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) StockOf(ctx context.Context, medicationID uuid.UUID) (int, error) {
	var med models.Medication
	err := r.db.WithContext(ctx).Select("id", "stock_quantity").First(&med, "id = ?", medicationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrMedicationNotFound
		}
		return 0, err
	}
	return med.StockQuantity, nil
}

func (r *repository) Append(ctx context.Context, entry *models.InventoryLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListRecent(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.InventoryLogEntry, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if cursor != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var entries []models.InventoryLogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByMedication(ctx context.Context, medicationID uuid.UUID) ([]models.InventoryLogEntry, error) {
	var entries []models.InventoryLogEntry
	if err := r.db.WithContext(ctx).
		Where("medication_id = ?", medicationID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListBelow returns medications under threshold, or under their own minimum
// when threshold is nil. Strictly below in both cases.
func (r *repository) ListBelow(ctx context.Context, threshold *int) ([]models.Medication, error) {
	query := r.db.WithContext(ctx).Order("stock_quantity ASC, name ASC")
	if threshold != nil {
		query = query.Where("stock_quantity < ?", *threshold)
	} else {
		query = query.Where("stock_quantity < minimum_stock_level")
	}
	var meds []models.Medication
	if err := query.Find(&meds).Error; err != nil {
		return nil, err
	}
	return meds, nil
}

const driftQuery = `
SELECT m.id AS medication_id,
       m.name,
       m.stock_quantity,
       COALESCE(SUM(l.quantity_change), 0) AS ledger_total
FROM medications m
LEFT JOIN inventory_log_entries l ON l.medication_id = m.id
GROUP BY m.id, m.name, m.stock_quantity
HAVING m.stock_quantity <> COALESCE(SUM(l.quantity_change), 0)
ORDER BY m.name ASC
`

func (r *repository) ListDrift(ctx context.Context) ([]Drift, error) {
	var drift []Drift
	if err := r.db.WithContext(ctx).Raw(driftQuery).Scan(&drift).Error; err != nil {
		return nil, err
	}
	return drift, nil
}
