package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultMinimumStockLevel is the reorder point applied when none is given.
const DefaultMinimumStockLevel = 10

// Medication is a catalog entry with its on-hand stock.
type Medication struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name              string    `gorm:"column:name;not null"`
	GenericName       *string   `gorm:"column:generic_name"`
	Description       *string   `gorm:"column:description"`
	DosageForm        *string   `gorm:"column:dosage_form"`
	Strength          *string   `gorm:"column:strength"`
	StockQuantity     int       `gorm:"column:stock_quantity;not null;default:0"`
	MinimumStockLevel int       `gorm:"column:minimum_stock_level;not null;default:10"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Medication) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// GenericNameOrEmpty returns the generic name or "".
func (m Medication) GenericNameOrEmpty() string {
	if m.GenericName == nil {
		return ""
	}
	return *m.GenericName
}

// StrengthOrEmpty returns the labeled strength or "".
func (m Medication) StrengthOrEmpty() string {
	if m.Strength == nil {
		return ""
	}
	return *m.Strength
}
