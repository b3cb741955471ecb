package models

import (
	"github.com/google/uuid"
)

// assignID fills a nil primary key so inserts work on engines without
// gen_random_uuid().
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every model in dependency order, for AutoMigrate in tests and
// the dev bootstrap.
func All() []any {
	return []any{
		&Medication{},
		&DrugInteraction{},
		&Patient{},
		&PatientAllergy{},
		&Prescription{},
		&PrescriptionItem{},
		&InteractionReport{},
		&InteractionDetail{},
		&InventoryLogEntry{},
	}
}
