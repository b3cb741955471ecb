package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryLogEntry is an append-only stock movement. The running sum of
// QuantityChange per medication equals its StockQuantity.
type InventoryLogEntry struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	MedicationID   uuid.UUID  `gorm:"column:medication_id;type:uuid;not null;index"`
	QuantityChange int        `gorm:"column:quantity_change;not null"`
	RecordedByID   *uuid.UUID `gorm:"column:recorded_by_id;type:uuid"`
	Reason         string     `gorm:"column:reason;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (InventoryLogEntry) TableName() string {
	return "inventory_log_entries"
}

func (e *InventoryLogEntry) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}
