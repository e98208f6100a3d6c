package ontology

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors of a manager.
type Metrics struct {
	Loads          *prometheus.CounterVec
	FormatAttempts *prometheus.CounterVec
	Fallbacks      *prometheus.CounterVec
	SkippedImports *prometheus.CounterVec
	Changes        *prometheus.CounterVec
	Rollbacks      *prometheus.CounterVec
	Ontologies     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semonto_loads_total",
			Help: "Ontology loads by result",
		}, []string{"result"}),
		FormatAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semonto_format_attempts_total",
			Help: "Native reader attempts by format and result",
		}, []string{"format", "result"}),
		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semonto_fallback_loads_total",
			Help: "Fallback loader invocations by result",
		}, []string{"result"}),
		SkippedImports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semonto_skipped_imports_total",
			Help: "Imports not loaded, by reason",
		}, []string{"reason"}),
		Changes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semonto_changes_total",
			Help: "Applied ontology changes by type and status",
		}, []string{"type", "status"}),
		Rollbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "semonto_rollbacks_total",
			Help: "Change batch rollbacks by result",
		}, []string{"result"}),
		Ontologies: f.NewGauge(prometheus.GaugeOpts{
			Name: "semonto_ontologies",
			Help: "Ontologies currently registered",
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
