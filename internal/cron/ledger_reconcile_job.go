package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/rxguard-backend/internal/ledger"
	"github.com/angelmondragon/rxguard-backend/pkg/logger"
)

type ledgerReconciler interface {
	Reconcile(ctx context.Context) ([]ledger.Drift, error)
}

// NewLedgerReconcileJob constructs the job that compares stored stock with
// the inventory log. Any drift fails the run so it shows on job_failure.
func NewLedgerReconcileJob(logg *logger.Logger, stock ledgerReconciler) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock service required")
	}
	return &ledgerReconcileJob{logg: logg, stock: stock}, nil
}

type ledgerReconcileJob struct {
	logg  *logger.Logger
	stock ledgerReconciler
}

func (j *ledgerReconcileJob) Name() string { return "ledger_reconcile" }

func (j *ledgerReconcileJob) Run(ctx context.Context) error {
	drift, err := j.stock.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile ledger: %w", err)
	}
	var errs error
	for _, d := range drift {
		logCtx := j.logg.WithMedicationID(ctx, d.MedicationID.String())
		logCtx = j.logg.WithFields(logCtx, map[string]any{
			"name":           d.Name,
			"stock_quantity": d.StockQuantity,
			"ledger_total":   d.LedgerTotal,
		})
		j.logg.Warn(logCtx, "stock drifted from inventory log")
		errs = multierr.Append(errs, fmt.Errorf("medication %s: stock %d, ledger total %d", d.MedicationID, d.StockQuantity, d.LedgerTotal))
	}
	j.logg.Info(j.logg.WithField(ctx, "drifting", len(drift)), "ledger reconcile complete")
	return errs
}
