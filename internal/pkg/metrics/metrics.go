// Package metrics - счётчики движка импорта и сохранения ферм
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "talhao"

// Результат импорта для лейбла result
const (
	ResultOK          = "ok"
	ResultMalformed   = "malformed"
	ResultUnsupported = "unsupported"
	ResultError       = "error"
)

type Metrics struct {
	Imports           *prometheus.CounterVec
	FeaturesImported  prometheus.Counter
	FeaturesSkipped   prometheus.Counter
	ReprojectFailures prometheus.Counter
	SuspectFeatures   prometheus.Counter
	Degenerate        prometheus.Counter
	FarmsSaved        *prometheus.CounterVec
	Commands          *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
}

// New регистрирует метрики в reg. nil - отдельный реестр (для тестов).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		Imports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Imported files by kind and result.",
		}, []string{"kind", "result"}),
		FeaturesImported: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_imported_total",
			Help:      "Parcels added to sessions from imported files.",
		}),
		FeaturesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_skipped_total",
			Help:      "Imported features without geometry.",
		}),
		ReprojectFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reprojection_point_failures_total",
			Help:      "Points left unconverted during reprojection.",
		}),
		SuspectFeatures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspect_features_total",
			Help:      "Imported parcels with coordinates outside geographic range.",
		}),
		Degenerate: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degenerate_geometries_total",
			Help:      "Imported parcels whose computed area is zero.",
		}),
		FarmsSaved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "farms_saved_total",
			Help:      "Saved farms by operation.",
		}, []string{"op"}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "editor_commands_total",
			Help:      "Map commands dispatched by name and outcome.",
		}, []string{"command", "found"}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "editor_sessions_active",
			Help:      "Open editor sessions.",
		}),
	}
}
