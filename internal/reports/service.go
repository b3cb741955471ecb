package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/internal/interactions"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/metrics"
)

const (
	defaultListLimit         = 20
	maxListLimit             = 100
	defaultScreenThresholdMg = 1000

	drugDrugRecommendation = "Consult with healthcare provider before taking these medications together."
	allergyRecommendation  = "Do not administer this medication to this patient."
	dosageRecommendation   = "Review medication dosage before administration."

	interactionsLabel = "Drug interactions detected"
	dosageLabel       = "Dosage issues detected"
	cleanSummary      = "No interactions or dosage issues detected."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Options tunes report generation. Zero values fall back to defaults.
type Options struct {
	ScreenThresholdMg float64
	Logger            *logger.Logger
	Metrics           *metrics.SafetyMetrics
	Now               func() time.Time
}

// Service generates and serves interaction reports.
type Service struct {
	repo      *Repository
	tx        txRunner
	finder    interactions.Finder
	threshold decimal.Decimal
	logg      *logger.Logger
	metrics   *metrics.SafetyMetrics
	now       func() time.Time
}

// NewService wires report generation. finder resolves drug pairs and is
// usually the cached catalog lookup.
func NewService(repo *Repository, tx txRunner, finder interactions.Finder, opts Options) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if finder == nil {
		return nil, fmt.Errorf("interaction finder required")
	}
	threshold := opts.ScreenThresholdMg
	if threshold <= 0 {
		threshold = defaultScreenThresholdMg
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		finder:    finder,
		threshold: decimal.NewFromFloat(threshold),
		logg:      opts.Logger,
		metrics:   opts.Metrics,
		now:       now,
	}, nil
}

// Generate builds and persists the report for a prescription in one
// transaction. It returns nil, nil when the prescription has no line items.
func (s *Service) Generate(ctx context.Context, prescriptionID uuid.UUID) (*models.InteractionReport, error) {
	var report *models.InteractionReport
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		report, err = s.GenerateInTx(ctx, tx, prescriptionID)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate report")
	}
	if report != nil {
		s.Observe(ctx, report)
	}
	return report, nil
}

// GenerateInTx runs generation inside a caller-owned transaction. Details
// are ordered drug-drug findings first, then allergy, then dosage.
func (s *Service) GenerateInTx(ctx context.Context, tx *gorm.DB, prescriptionID uuid.UUID) (*models.InteractionReport, error) {
	repo := s.repo.WithTx(tx)

	prescription, err := repo.FindPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if len(prescription.Items) == 0 {
		return nil, nil
	}

	meds := distinctMedications(prescription.Items)
	ids := make([]uuid.UUID, 0, len(meds))
	for _, med := range meds {
		ids = append(ids, med.ID)
	}

	report := &models.InteractionReport{PrescriptionID: prescription.ID}
	add := func(detail models.InteractionDetail) {
		detail.Position = len(report.Details)
		report.Details = append(report.Details, detail)
	}

	pairs, err := interactions.CheckPairwise(ctx, ids, s.finder)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check drug pairs")
	}
	for _, pair := range pairs {
		drug1, drug2 := pair.Drug1ID, pair.Drug2ID
		add(models.InteractionDetail{
			Drug1ID:        &drug1,
			Drug2ID:        &drug2,
			Type:           enums.FindingTypeDrugDrug,
			Severity:       pair.Severity,
			Description:    pair.Description,
			Recommendation: drugDrugRecommendation,
		})
	}

	patient, err := repo.FindPatient(ctx, prescription.PatientID)
	if err != nil {
		return nil, err
	}
	var allergyCount int
	if patient != nil {
		for _, match := range interactions.CheckAllergies(meds, patient.Allergies) {
			medID := match.MedicationID
			add(models.InteractionDetail{
				Drug1ID:        &medID,
				Type:           enums.FindingTypeAllergy,
				Severity:       match.Severity,
				Description:    fmt.Sprintf("Patient is allergic to %s", match.Allergen),
				Recommendation: allergyRecommendation,
			})
			allergyCount++
		}
	}

	var dosageCount int
	if patient != nil && patient.WeightKg != nil && patient.DateOfBirth != nil {
		for _, item := range prescription.Items {
			if !s.exceedsScreen(ctx, item.Dosage) {
				continue
			}
			medID := item.MedicationID
			add(models.InteractionDetail{
				Drug1ID:        &medID,
				Type:           enums.FindingTypeDosage,
				Severity:       enums.SeverityModerate,
				Description:    fmt.Sprintf("Dosage of %s may be inappropriate", item.Dosage),
				Recommendation: dosageRecommendation,
			})
			dosageCount++
		}
	}

	report.HasInteractions = len(pairs) > 0 || allergyCount > 0
	report.HasDosageIssues = dosageCount > 0
	report.Summary = summarize(report.HasInteractions, report.HasDosageIssues)

	if err := repo.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// exceedsScreen is the coarse report-time check: the number in front of
// "mg" above the configured ceiling. It does not consult the dosage rule
// table; the two checks diverge and are kept apart until product settles
// which one reports should use.
func (s *Service) exceedsScreen(ctx context.Context, dosage string) bool {
	idx := strings.Index(strings.ToLower(dosage), "mg")
	if idx < 0 {
		return false
	}
	value, err := decimal.NewFromString(strings.TrimSpace(dosage[:idx]))
	if err != nil {
		if s.logg != nil {
			s.logg.Debug(s.logg.WithField(ctx, "dosage", dosage), "dosage screen skipped unparseable line")
		}
		return false
	}
	return value.GreaterThan(s.threshold)
}

func distinctMedications(items []models.PrescriptionItem) []models.Medication {
	seen := make(map[uuid.UUID]struct{}, len(items))
	meds := make([]models.Medication, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.MedicationID]; ok {
			continue
		}
		seen[item.MedicationID] = struct{}{}
		med := item.Medication
		med.ID = item.MedicationID
		meds = append(meds, med)
	}
	return meds
}

func summarize(hasInteractions, hasDosageIssues bool) string {
	var parts []string
	if hasInteractions {
		parts = append(parts, interactionsLabel)
	}
	if hasDosageIssues {
		parts = append(parts, dosageLabel)
	}
	if len(parts) == 0 {
		return cleanSummary
	}
	return strings.Join(parts, ". ") + ". Review recommended."
}

// Observe records metrics and the log line for a committed report. Callers
// that use GenerateInTx call it once their transaction commits.
func (s *Service) Observe(ctx context.Context, report *models.InteractionReport) {
	flagged := report.HasInteractions || report.HasDosageIssues
	s.metrics.ObserveReport(flagged)
	for _, detail := range report.Details {
		s.metrics.ObserveFinding(detail.Type.String(), detail.Severity.String())
	}
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithPrescriptionID(ctx, report.PrescriptionID.String())
	ctx = s.logg.WithFields(ctx, map[string]any{
		"report_id":         report.ID.String(),
		"findings":          len(report.Details),
		"has_interactions":  report.HasInteractions,
		"has_dosage_issues": report.HasDosageIssues,
	})
	s.logg.Info(ctx, "interaction report generated")
}

// Get returns one report with its details.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.InteractionReport, error) {
	return s.repo.FindReport(ctx, id)
}

// List returns reports newest first within scope.
func (s *Service) List(ctx context.Context, scope ListScope) ([]models.InteractionReport, error) {
	switch {
	case scope.Limit <= 0:
		scope.Limit = defaultListLimit
	case scope.Limit > maxListLimit:
		scope.Limit = maxListLimit
	}
	reports, err := s.repo.ListReports(ctx, scope)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.InteractionReport{}
	}
	return reports, nil
}

// MarkReviewed records reviewerID on the report. Repeating the call with
// the same reviewer is a no-op; a different reviewer gets CONFLICT.
func (s *Service) MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) (*models.InteractionReport, error) {
	if reviewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reviewer id is required")
	}
	if _, err := s.repo.SetReviewer(ctx, id, reviewerID, s.now().UTC()); err != nil {
		return nil, err
	}
	report, err := s.repo.FindReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.ReviewedByID == nil || *report.ReviewedByID != reviewerID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "report already reviewed by another user")
	}
	return report, nil
}
