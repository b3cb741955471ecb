package metrics

import "github.com/prometheus/client_golang/prometheus"

// SafetyMetrics counts report findings and stock movements. A nil receiver
// or one built without a registerer records nothing.
type SafetyMetrics struct {
	reports          *prometheus.CounterVec
	findings         *prometheus.CounterVec
	stockAdjustments *prometheus.CounterVec
	lowStock         prometheus.Gauge
}

// NewSafetyMetrics registers the safety collectors on reg.
func NewSafetyMetrics(reg prometheus.Registerer) *SafetyMetrics {
	if reg == nil {
		return &SafetyMetrics{}
	}
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interaction_reports_total",
		Help: "Interaction reports generated, by whether any finding was recorded.",
	}, []string{"flagged"})
	findings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "interaction_findings_total",
		Help: "Findings recorded on interaction reports.",
	}, []string{"type", "severity"})
	stockAdjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_adjustments_total",
		Help: "Stock adjustment attempts by outcome.",
	}, []string{"outcome"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "inventory_low_stock_medications",
		Help: "Medications below their reorder point at the last sweep.",
	})
	reg.MustRegister(reports, findings, stockAdjustments, lowStock)
	return &SafetyMetrics{
		reports:          reports,
		findings:         findings,
		stockAdjustments: stockAdjustments,
		lowStock:         lowStock,
	}
}

// ObserveReport records one generated report.
func (s *SafetyMetrics) ObserveReport(flagged bool) {
	if s == nil || s.reports == nil {
		return
	}
	label := "false"
	if flagged {
		label = "true"
	}
	s.reports.WithLabelValues(label).Inc()
}

// ObserveFinding records one finding of the given type and severity.
func (s *SafetyMetrics) ObserveFinding(findingType, severity string) {
	if s == nil || s.findings == nil {
		return
	}
	s.findings.WithLabelValues(normalizeLabel(findingType), normalizeLabel(severity)).Inc()
}

// ObserveAdjustment records a stock adjustment outcome such as "applied".
func (s *SafetyMetrics) ObserveAdjustment(outcome string) {
	if s == nil || s.stockAdjustments == nil {
		return
	}
	s.stockAdjustments.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetLowStock publishes the size of the latest low-stock sweep.
func (s *SafetyMetrics) SetLowStock(count int) {
	if s == nil || s.lowStock == nil {
		return
	}
	s.lowStock.Set(float64(count))
}
