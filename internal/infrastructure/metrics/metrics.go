package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for a processing run.
type Metrics struct {
	Registry *prometheus.Registry

	// Transaction metrics
	Transactions     *prometheus.CounterVec
	MalformedRecords prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsLocked  prometheus.Gauge

	// Output metrics
	SnapshotWriteErrors *prometheus.CounterVec

	RunDuration prometheus.Gauge
}

// New creates all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		Transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txengine_transactions_total",
				Help: "Total transaction records applied by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		MalformedRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "txengine_malformed_records_total",
			Help: "Total input records that could not be parsed",
		}),

		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "txengine_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsLocked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txengine_accounts_locked",
			Help: "Number of locked accounts at the end of the run",
		}),

		SnapshotWriteErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txengine_snapshot_write_errors_total",
				Help: "Total snapshot write failures by sink",
			},
			[]string{"sink"},
		),

		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "txengine_run_duration_seconds",
			Help: "Wall time spent processing the input stream",
		}),
	}
}

// WriteFile writes the current metric values in text exposition format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
