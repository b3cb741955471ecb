package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/enums"
)

// DrugInteraction is a known hazard between two medications. Lookups treat
// the pair as unordered.
type DrugInteraction struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Drug1ID     uuid.UUID      `gorm:"column:drug1_id;type:uuid;not null"`
	Drug2ID     uuid.UUID      `gorm:"column:drug2_id;type:uuid;not null"`
	Severity    enums.Severity `gorm:"column:severity;type:text;not null"`
	Description string         `gorm:"column:description;not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (d *DrugInteraction) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}
