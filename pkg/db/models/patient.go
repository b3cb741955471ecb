package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/enums"
)

// Patient holds the demographic facts the safety checks consume.
type Patient struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	FullName    string           `gorm:"column:full_name;not null"`
	DateOfBirth *time.Time       `gorm:"column:date_of_birth"`
	WeightKg    *float64         `gorm:"column:weight_kg"`
	Allergies   []PatientAllergy `gorm:"foreignKey:PatientID"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Patient) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PatientAllergy is a recorded allergen with its reaction severity.
type PatientAllergy struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	PatientID uuid.UUID      `gorm:"column:patient_id;type:uuid;not null;index"`
	Allergen  string         `gorm:"column:allergen;not null"`
	Severity  enums.Severity `gorm:"column:severity;type:text;not null"`
	Reaction  *string        `gorm:"column:reaction"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (a *PatientAllergy) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
