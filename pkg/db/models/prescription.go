package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/enums"
)

// Prescription groups the medications ordered for a patient in one visit.
type Prescription struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	PatientID    uuid.UUID                `gorm:"column:patient_id;type:uuid;not null;index"`
	PrescriberID *uuid.UUID               `gorm:"column:prescriber_id;type:uuid"`
	Status       enums.PrescriptionStatus `gorm:"column:status;type:text;not null"`
	Notes        *string                  `gorm:"column:notes"`
	PrescribedAt time.Time                `gorm:"column:prescribed_at;not null"`
	FilledAt     *time.Time               `gorm:"column:filled_at"`
	CancelledAt  *time.Time               `gorm:"column:cancelled_at"`
	Items        []PrescriptionItem       `gorm:"foreignKey:PrescriptionID"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Prescription) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	if p.Status == "" {
		p.Status = enums.PrescriptionStatusPending
	}
	if p.PrescribedAt.IsZero() {
		p.PrescribedAt = time.Now().UTC()
	}
	return nil
}

// PrescriptionItem is one medication line. Position keeps entry order.
type PrescriptionItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	PrescriptionID uuid.UUID  `gorm:"column:prescription_id;type:uuid;not null;index"`
	MedicationID   uuid.UUID  `gorm:"column:medication_id;type:uuid;not null"`
	Medication     Medication `gorm:"foreignKey:MedicationID"`
	Position       int        `gorm:"column:position;not null"`
	Dosage         string     `gorm:"column:dosage;not null"`
	Frequency      string     `gorm:"column:frequency;not null"`
	Duration       *string    `gorm:"column:duration"`
	Instructions   *string    `gorm:"column:instructions"`
	Quantity       int        `gorm:"column:quantity;not null;default:1"`
}

func (i *PrescriptionItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	if i.Quantity <= 0 {
		i.Quantity = 1
	}
	return nil
}
