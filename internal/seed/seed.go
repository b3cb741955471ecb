// Package seed loads the sample medication catalog used by local and demo
// environments.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/internal/catalog"
	"github.com/angelmondragon/rxguard-backend/internal/ledger"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

const openingBalanceReason = "Initial stock"

type sampleMedication struct {
	Name         string
	GenericName  string
	Description  string
	DosageForm   string
	Strength     string
	OpeningStock int
}

type sampleInteraction struct {
	Drug1       string
	Drug2       string
	Severity    enums.Severity
	Description string
}

var sampleMedications = []sampleMedication{
	{"Ibuprofen", "Ibuprofen", "Non-steroidal anti-inflammatory drug", "tablet", "200mg", 100},
	{"Acetaminophen", "Paracetamol", "Pain reliever and fever reducer", "tablet", "500mg", 150},
	{"Aspirin", "Acetylsalicylic acid", "Pain reliever, anti-inflammatory, and anti-platelet", "tablet", "325mg", 75},
	{"Lisinopril", "Lisinopril", "ACE inhibitor for high blood pressure", "tablet", "10mg", 50},
	{"Warfarin", "Warfarin", "Anticoagulant", "tablet", "5mg", 30},
}

var sampleInteractions = []sampleInteraction{
	{"Warfarin", "Aspirin", enums.SeveritySevere, "Increased risk of bleeding when taking warfarin with aspirin."},
	{"Lisinopril", "Ibuprofen", enums.SeverityModerate, "NSAIDs like ibuprofen may reduce the efficacy of ACE inhibitors like lisinopril."},
	{"Warfarin", "Ibuprofen", enums.SeveritySevere, "Increased risk of bleeding when taking warfarin with NSAIDs like ibuprofen."},
	{"Acetaminophen", "Warfarin", enums.SeverityModerate, "Frequent use of acetaminophen can increase the effect of warfarin, potentially leading to an increased risk of bleeding."},
	{"Ibuprofen", "Aspirin", enums.SeverityModerate, "Taking NSAIDs like ibuprofen with aspirin can increase the risk of stomach bleeding and ulcers."},
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockAdjuster interface {
	AdjustStockInTx(ctx context.Context, tx *gorm.DB, input ledger.AdjustStockInput) (*ledger.AdjustStockResult, error)
}

// Result counts the rows a seed run created.
type Result struct {
	MedicationsCreated  int
	InteractionsCreated int
}

// Seeder writes the sample catalog.
type Seeder struct {
	catalog *catalog.Repository
	stock   stockAdjuster
	tx      txRunner
	logg    *logger.Logger
}

func NewSeeder(repo *catalog.Repository, stock stockAdjuster, tx txRunner, logg *logger.Logger) (*Seeder, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Seeder{catalog: repo, stock: stock, tx: tx, logg: logg}, nil
}

// SeedSampleCatalog creates the sample medications and interactions that are
// missing. Existing rows are left untouched, so repeated runs are no-ops.
// Opening stock for new medications is recorded through the ledger.
func (s *Seeder) SeedSampleCatalog(ctx context.Context, actorID *uuid.UUID) (*Result, error) {
	result := &Result{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.catalog.WithTx(tx)
		byName := make(map[string]uuid.UUID, len(sampleMedications))

		for _, sample := range sampleMedications {
			existing, err := repo.FindMedicationByName(ctx, sample.Name)
			switch {
			case err == nil:
				byName[sample.Name] = existing.ID
				continue
			case !pkgerrors.HasCode(err, pkgerrors.CodeNotFound):
				return err
			}

			med, err := repo.CreateMedication(ctx, &models.Medication{
				Name:        sample.Name,
				GenericName: strPtr(sample.GenericName),
				Description: strPtr(sample.Description),
				DosageForm:  strPtr(sample.DosageForm),
				Strength:    strPtr(sample.Strength),
			})
			if err != nil {
				return err
			}
			byName[sample.Name] = med.ID
			result.MedicationsCreated++

			if _, err := s.stock.AdjustStockInTx(ctx, tx, ledger.AdjustStockInput{
				MedicationID: med.ID,
				Delta:        sample.OpeningStock,
				Reason:       openingBalanceReason,
				ActorID:      actorID,
			}); err != nil {
				return err
			}
		}

		for _, sample := range sampleInteractions {
			drug1, drug2 := byName[sample.Drug1], byName[sample.Drug2]
			existing, err := repo.FindInteraction(ctx, drug1, drug2)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if _, err := repo.CreateInteraction(ctx, &models.DrugInteraction{
				Drug1ID:     drug1,
				Drug2ID:     drug2,
				Severity:    sample.Severity,
				Description: sample.Description,
			}); err != nil {
				return err
			}
			result.InteractionsCreated++
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed sample catalog")
		}
		return nil, err
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"medications_created":  result.MedicationsCreated,
			"interactions_created": result.InteractionsCreated,
		})
		s.logg.Info(ctx, "sample catalog seeded")
	}
	return result, nil
}

func strPtr(v string) *string {
	return &v
}
