// Package metrics provides Prometheus metrics for the pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsProcessed tracks records flowing through each stage by outcome.
	RecordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piiguard",
			Subsystem: "pipeline",
			Name:      "records_total",
			Help:      "Total number of records processed per stage by outcome",
		},
		[]string{"stage", "outcome"},
	)

	// RecordsRejected tracks unrecoverable records by rejection reason.
	RecordsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piiguard",
			Subsystem: "cleaner",
			Name:      "records_rejected_total",
			Help:      "Total number of records rejected as unrecoverable by reason",
		},
		[]string{"reason"},
	)

	// RemediationOps tracks field repairs by operation kind.
	RemediationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piiguard",
			Subsystem: "cleaner",
			Name:      "remediation_operations_total",
			Help:      "Total number of field remediation operations by kind",
		},
		[]string{"operation"},
	)

	// BatchDuration tracks end-to-end batch run duration.
	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "piiguard",
			Subsystem: "pipeline",
			Name:      "batch_duration_seconds",
			Help:      "Duration of full batch runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	// ValidationFailureRate is the post-clean failure rate of the last batch.
	ValidationFailureRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "piiguard",
			Subsystem: "validator",
			Name:      "failure_rate_percent",
			Help:      "Validation failure rate of the most recent batch, percent",
		},
	)

	// AlertsSignaled counts firings of the failure-rate notification hook.
	AlertsSignaled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "piiguard",
			Subsystem: "pipeline",
			Name:      "alerts_signaled_total",
			Help:      "Total number of validation-failure alerts signaled",
		},
	)
)
