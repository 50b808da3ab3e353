// Package metrics provides Prometheus metrics for migration runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsTotal counts legacy records by entity and outcome.
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cumulus",
			Subsystem: "migration",
			Name:      "records_total",
			Help:      "Total number of legacy records processed by entity and outcome",
		},
		[]string{"entity", "outcome"},
	)

	// RecordFailuresTotal counts failed and skipped records by reason.
	RecordFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cumulus",
			Subsystem: "migration",
			Name:      "record_errors_total",
			Help:      "Total number of records that were not migrated, by entity and reason",
		},
		[]string{"entity", "reason"},
	)

	// FilesTotal counts granule files by outcome.
	FilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cumulus",
			Subsystem: "migration",
			Name:      "files_total",
			Help:      "Total number of granule files processed by outcome",
		},
		[]string{"outcome"},
	)

	// ParentExecutionsTotal counts parent executions migrated on demand.
	ParentExecutionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cumulus",
			Subsystem: "migration",
			Name:      "parent_executions_total",
			Help:      "Total number of parent executions migrated recursively",
		},
	)

	// RecordDuration tracks the time spent migrating one record.
	RecordDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cumulus",
			Subsystem: "migration",
			Name:      "record_duration_seconds",
			Help:      "Duration of a single record migration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"entity"},
	)

	// DriverDuration tracks how long each entity's driver ran.
	DriverDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cumulus",
			Subsystem: "migration",
			Name:      "driver_duration_seconds",
			Help:      "Duration of an entity migration driver in seconds",
			Buckets:   []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"entity", "status"},
	)

	// RunsTotal counts coordinator invocations.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cumulus",
			Subsystem: "migration",
			Name:      "runs_total",
			Help:      "Total number of migration runs by status",
		},
		[]string{"status"},
	)

	// RunsInFlight tracks runs currently executing.
	RunsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cumulus",
			Subsystem: "migration",
			Name:      "runs_in_flight",
			Help:      "Number of migration runs currently executing",
		},
	)

	// KafkaMessagesPublished counts run events sent to Kafka.
	KafkaMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cumulus",
			Subsystem: "kafka",
			Name:      "messages_published_total",
			Help:      "Total number of messages published to Kafka",
		},
		[]string{"topic", "status"},
	)

	// ArtifactWritesTotal counts error artifact uploads.
	ArtifactWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cumulus",
			Subsystem: "artifact",
			Name:      "writes_total",
			Help:      "Total number of error artifact writes by status",
		},
		[]string{"status"},
	)
)

func RecordRecord(entity, outcome, reason string, durationSeconds float64) {
	RecordsTotal.WithLabelValues(entity, outcome).Inc()
	RecordDuration.WithLabelValues(entity).Observe(durationSeconds)
	if reason != "" {
		RecordFailuresTotal.WithLabelValues(entity, reason).Inc()
	}
}

func RecordFiles(outcome string, count int64) {
	if count > 0 {
		FilesTotal.WithLabelValues(outcome).Add(float64(count))
	}
}

func RecordDriver(entity, status string, durationSeconds float64) {
	DriverDuration.WithLabelValues(entity, status).Observe(durationSeconds)
}

func RecordRun(status string) {
	RunsTotal.WithLabelValues(status).Inc()
}

func RecordKafkaPublish(topic, status string) {
	KafkaMessagesPublished.WithLabelValues(topic, status).Inc()
}

func RecordArtifactWrite(status string) {
	ArtifactWritesTotal.WithLabelValues(status).Inc()
}
