package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
	"github.com/angelmondragon/rxguard-backend/pkg/metrics"
)

// LowStockJobParams configures the low stock sweep. Threshold zero or less
// means each medication's own minimum applies.
type LowStockJobParams struct {
	Logger    *logger.Logger
	Stock     lowStockLister
	Metrics   *metrics.SafetyMetrics
	Threshold int
}

type lowStockLister interface {
	LowStock(ctx context.Context, threshold *int) ([]models.Medication, error)
}

// NewLowStockJob constructs the low stock sweep.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock service required")
	}
	job := &lowStockJob{
		logg:    params.Logger,
		stock:   params.Stock,
		metrics: params.Metrics,
	}
	if params.Threshold > 0 {
		threshold := params.Threshold
		job.threshold = &threshold
	}
	return job, nil
}

type lowStockJob struct {
	logg      *logger.Logger
	stock     lowStockLister
	metrics   *metrics.SafetyMetrics
	threshold *int
}

func (j *lowStockJob) Name() string { return "low_stock_sweep" }

func (j *lowStockJob) Run(ctx context.Context) error {
	meds, err := j.stock.LowStock(ctx, j.threshold)
	if err != nil {
		return fmt.Errorf("list low stock: %w", err)
	}
	j.metrics.SetLowStock(len(meds))
	for _, med := range meds {
		logCtx := j.logg.WithMedicationID(ctx, med.ID.String())
		logCtx = j.logg.WithFields(logCtx, map[string]any{
			"name":           med.Name,
			"stock_quantity": med.StockQuantity,
			"minimum_level":  med.MinimumStockLevel,
		})
		j.logg.Warn(logCtx, "medication below reorder level")
	}
	j.logg.Info(j.logg.WithField(ctx, "count", len(meds)), "low stock sweep complete")
	return nil
}
