package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	unitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maborbench_units_total",
			Help: "Total run units executed, by final status.",
		},
		[]string{"status"},
	)

	unitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maborbench_unit_duration_seconds",
			Help:    "Wall time spent per run unit, including build wait.",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		},
		[]string{"bench", "backend"},
	)
)

func init() {
	prometheus.MustRegister(unitsTotal)
	prometheus.MustRegister(unitDuration)
}
