// Package metrics exposes prometheus collectors for the mining loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "apecoin"

// Metrics groups every collector the node reports.
type Metrics struct {
	RoundsStarted   prometheus.Counter
	BlocksMined     prometheus.Counter
	StaleResults    *prometheus.CounterVec
	WorkerFailures  prometheus.Counter
	DuplicateStarts prometheus.Counter
	ExternalBlocks  *prometheus.CounterVec
	Mining          prometheus.Gauge
	TipHeight       prometheus.Gauge

	TxSubmitted prometheus.Counter
	TxRejected  prometheus.Counter
	TxDropped   prometheus.Counter
	PoolSize    prometheus.Gauge
}

// New creates the collectors and registers them on reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "miner", Name: "rounds_started_total",
			Help: "Mining rounds dispatched to the proof-of-work worker.",
		}),
		BlocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "miner", Name: "blocks_mined_total",
			Help: "Locally mined blocks committed to the chain.",
		}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "miner", Name: "stale_results_total",
			Help: "Worker results discarded as stale, by reason.",
		}, []string{"reason"}),
		WorkerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "miner", Name: "worker_failures_total",
			Help: "Rounds that ended with a worker failure.",
		}),
		DuplicateStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "miner", Name: "duplicate_starts_total",
			Help: "Start requests received while already mining.",
		}),
		ExternalBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "miner", Name: "external_blocks_total",
			Help: "Peer blocks handled, by outcome.",
		}, []string{"outcome"}),
		Mining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "miner", Name: "mining",
			Help: "1 while the controller is mining, otherwise 0.",
		}),
		TipHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "chain", Name: "tip_height",
			Help: "Height of the local chain tip.",
		}),
		TxSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "txpool", Name: "submitted_total",
			Help: "Transactions accepted into the pool.",
		}),
		TxRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "txpool", Name: "rejected_total",
			Help: "Transactions rejected at submission.",
		}),
		TxDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "txpool", Name: "dropped_total",
			Help: "Pool entries dropped by revalidation.",
		}),
		PoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "txpool", Name: "size",
			Help: "Pending transactions in the pool.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.RoundsStarted, m.BlocksMined, m.StaleResults, m.WorkerFailures,
			m.DuplicateStarts, m.ExternalBlocks, m.Mining, m.TipHeight,
			m.TxSubmitted, m.TxRejected, m.TxDropped, m.PoolSize,
		)
	}
	return m
}
