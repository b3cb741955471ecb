package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/metrics"
	"github.com/angelmondragon/rxguard-backend/pkg/pagination"
)

const defaultRecentLimit = 10

// ErrInsufficientStock matches, via errors.Is, any rejection caused by an
// adjustment that would take stock below zero.
var ErrInsufficientStock = pkgerrors.New(pkgerrors.CodeInsufficientStock, "")

// Service defines the inventory ledger operations.
type Service interface {
	AdjustStock(ctx context.Context, input AdjustStockInput) (*AdjustStockResult, error)
	AdjustStockInTx(ctx context.Context, tx *gorm.DB, input AdjustStockInput) (*AdjustStockResult, error)
	LowStock(ctx context.Context, threshold *int) ([]models.Medication, error)
	RecentEntries(ctx context.Context, params pagination.Params) (pagination.Page[models.InventoryLogEntry], error)
	History(ctx context.Context, medicationID uuid.UUID) ([]models.InventoryLogEntry, error)
	Reconcile(ctx context.Context) ([]Drift, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AdjustStockInput is one signed stock movement.
type AdjustStockInput struct {
	MedicationID uuid.UUID  `json:"medication_id"`
	Delta        int        `json:"delta"`
	Reason       string     `json:"reason"`
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
}

// AdjustStockResult reports the applied entry and the resulting stock.
type AdjustStockResult struct {
	Entry         *models.InventoryLogEntry `json:"entry"`
	StockQuantity int                       `json:"stock_quantity"`
}

type service struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.SafetyMetrics
}

// NewService wires a ledger service. logg and m may be nil.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, m *metrics.SafetyMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg, metrics: m}, nil
}

// AdjustStock applies input in its own transaction. A rejected adjustment
// writes nothing and returns an INSUFFICIENT_STOCK error.
func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*AdjustStockResult, error) {
	var result *AdjustStockResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.AdjustStockInTx(ctx, tx, input)
		return err
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	return result, nil
}

// AdjustStockInTx applies input inside a caller-owned transaction. The
// stock update and the log append succeed or fail together with tx.
func (s *service) AdjustStockInTx(ctx context.Context, tx *gorm.DB, input AdjustStockInput) (*AdjustStockResult, error) {
	if err := validateAdjustment(input); err != nil {
		s.metrics.ObserveAdjustment("invalid")
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	applied, err := repo.ApplyDelta(ctx, input.MedicationID, input.Delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply stock delta")
	}

	current, err := repo.StockOf(ctx, input.MedicationID)
	if err != nil {
		if errors.Is(err, ErrMedicationNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medication not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: read stock")
	}

	if !applied {
		s.metrics.ObserveAdjustment("rejected")
		s.warn(ctx, input, current, "stock adjustment rejected")
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock cannot go below zero").WithDetails(map[string]any{
			"medication_id":  input.MedicationID,
			"stock_quantity": current,
			"delta":          input.Delta,
		})
	}

	entry := &models.InventoryLogEntry{
		MedicationID:   input.MedicationID,
		QuantityChange: input.Delta,
		RecordedByID:   input.ActorID,
		Reason:         strings.TrimSpace(input.Reason),
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append inventory log")
	}

	s.metrics.ObserveAdjustment("applied")
	if s.logg != nil {
		logCtx := s.logg.WithMedicationID(ctx, input.MedicationID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{"delta": input.Delta, "stock_quantity": current})
		s.logg.Info(logCtx, "stock adjusted")
	}
	return &AdjustStockResult{Entry: entry, StockQuantity: current}, nil
}

func validateAdjustment(input AdjustStockInput) error {
	if input.MedicationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "medication id is required")
	}
	if input.Delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	return nil
}

func (s *service) warn(ctx context.Context, input AdjustStockInput, current int, msg string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithMedicationID(ctx, input.MedicationID.String())
	ctx = s.logg.WithFields(ctx, map[string]any{"delta": input.Delta, "stock_quantity": current})
	s.logg.Warn(ctx, msg)
}

// LowStock lists medications strictly below threshold, or below their own
// minimum when threshold is nil.
func (s *service) LowStock(ctx context.Context, threshold *int) ([]models.Medication, error) {
	if threshold != nil && *threshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must be non-negative")
	}
	meds, err := s.repo.ListBelow(ctx, threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list low stock")
	}
	if meds == nil {
		meds = []models.Medication{}
	}
	return meds, nil
}

// RecentEntries pages through the log newest first.
func (s *service) RecentEntries(ctx context.Context, params pagination.Params) (pagination.Page[models.InventoryLogEntry], error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.InventoryLogEntry]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListRecent(ctx, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return pagination.Page[models.InventoryLogEntry]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list inventory log")
	}
	return pagination.BuildPage(rows, limit, func(e models.InventoryLogEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	}), nil
}

// History returns every entry for one medication, oldest first.
func (s *service) History(ctx context.Context, medicationID uuid.UUID) ([]models.InventoryLogEntry, error) {
	if _, err := s.repo.StockOf(ctx, medicationID); err != nil {
		if errors.Is(err, ErrMedicationNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "medication not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: read stock")
	}
	entries, err := s.repo.ListByMedication(ctx, medicationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list medication history")
	}
	if entries == nil {
		entries = []models.InventoryLogEntry{}
	}
	return entries, nil
}

// Reconcile returns medications whose stock differs from the sum of their
// logged deltas. An empty result means the ledger is consistent.
func (s *service) Reconcile(ctx context.Context) ([]Drift, error) {
	drift, err := s.repo.ListDrift(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reconcile ledger")
	}
	if drift == nil {
		drift = []Drift{}
	}
	return drift, nil
}
