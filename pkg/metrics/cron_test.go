package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "ledger_reconcile"
	end := time.Unix(1700000000, 0)
	m.ObserveRun(job, 250*time.Millisecond, end, nil)
	m.ObserveRun(job, 100*time.Millisecond, end.Add(time.Hour), errors.New("drift"))
	m.IncSkipped()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "rxguard_cron_job_runs_total", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "rxguard_cron_job_runs_total", "outcome", OutcomeFailure); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "rxguard_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got < 0.34 || got > 0.36 {
		t.Fatalf("expected duration sum 0.35, got %f", got)
	}

	last := findMetricFamily(mfs, "rxguard_cron_job_last_success_timestamp_seconds")
	if last == nil || last.GetMetric()[0].GetGauge().GetValue() != float64(end.Unix()) {
		t.Fatalf("last success should only move on success")
	}

	skipped := findMetricFamily(mfs, "rxguard_cron_cycles_skipped_total")
	if skipped == nil || skipped.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one skipped cycle")
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.ObserveRun("job", time.Second, time.Now(), nil)
	m.IncSkipped()

	NewCronJobMetrics(nil).ObserveRun("job", time.Second, time.Now(), errors.New("x"))
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

func TestSafetyMetricsRecordsFindingsAndAdjustments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSafetyMetrics(reg)
	m.ObserveReport(true)
	m.ObserveFinding("drug-drug", "severe")
	m.ObserveFinding("drug-drug", "severe")
	m.ObserveAdjustment("rejected")
	m.SetLowStock(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "interaction_findings_total", "type", "drug-drug"); err != nil {
		t.Fatalf("fetch findings: %v", err)
	} else if got != 2 {
		t.Fatalf("expected findings=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "inventory_adjustments_total", "outcome", "rejected"); err != nil {
		t.Fatalf("fetch adjustments: %v", err)
	} else if got != 1 {
		t.Fatalf("expected adjustments=1, got %f", got)
	}
	gauge := findMetricFamily(mfs, "inventory_low_stock_medications")
	if gauge == nil || gauge.GetMetric()[0].GetGauge().GetValue() != 3 {
		t.Fatalf("expected low stock gauge 3")
	}
}

func TestSafetyMetricsNilSafe(t *testing.T) {
	var m *SafetyMetrics
	m.ObserveReport(false)
	m.ObserveFinding("", "")
	m.ObserveAdjustment("applied")
	m.SetLowStock(1)

	NewSafetyMetrics(nil).ObserveReport(true)
}
