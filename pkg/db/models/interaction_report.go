package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/enums"
)

// InteractionReport is the persisted outcome of a prescription safety run.
type InteractionReport struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PrescriptionID  uuid.UUID           `gorm:"column:prescription_id;type:uuid;not null;index"`
	Summary         string              `gorm:"column:summary;not null"`
	HasInteractions bool                `gorm:"column:has_interactions;not null;default:false"`
	HasDosageIssues bool                `gorm:"column:has_dosage_issues;not null;default:false"`
	ReviewedByID    *uuid.UUID          `gorm:"column:reviewed_by_id;type:uuid"`
	ReviewedAt      *time.Time          `gorm:"column:reviewed_at"`
	Details         []InteractionDetail `gorm:"foreignKey:ReportID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (r *InteractionReport) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

// InteractionDetail is one finding inside a report.
type InteractionDetail struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ReportID       uuid.UUID         `gorm:"column:report_id;type:uuid;not null;index"`
	Position       int               `gorm:"column:position;not null"`
	Drug1ID        *uuid.UUID        `gorm:"column:drug1_id;type:uuid"`
	Drug2ID        *uuid.UUID        `gorm:"column:drug2_id;type:uuid"`
	Type           enums.FindingType `gorm:"column:type;type:text;not null"`
	Severity       enums.Severity    `gorm:"column:severity;type:text;not null"`
	Description    string            `gorm:"column:description;not null"`
	Recommendation string            `gorm:"column:recommendation;not null"`
}

func (d *InteractionDetail) BeforeCreate(*gorm.DB) error {
	assignID(&d.ID)
	return nil
}
