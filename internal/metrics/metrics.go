// Package metrics exposes index statistics and batch activity as Prometheus
// metrics.
//
// seqdb is a batch tool with no listener, so metrics are written to a file
// in the text exposition format, ready for node_exporter's textfile
// collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/seqdb/internal/keyspace"
	"github.com/roach88/seqdb/internal/stats"
)

// Collector owns a private registry and the seqdb metrics registered on it.
// It implements engine.Recorder.
type Collector struct {
	registry *prometheus.Registry

	// Store metrics
	sequencesTotal *prometheus.GaugeVec
	sequencesFound *prometheus.GaugeVec
	foundRatio     *prometheus.GaugeVec

	// Batch metrics
	batchesTotal    *prometheus.CounterVec
	rowsMatched     *prometheus.CounterVec
	membersRejected *prometheus.CounterVec
	batchDuration   prometheus.Histogram
	batchSize       prometheus.Histogram
}

// New creates a Collector with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		sequencesTotal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seqdb_sequences_total",
				Help: "Number of sequence records per partition",
			},
			[]string{"partition"},
		),

		sequencesFound: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seqdb_sequences_found",
				Help: "Number of sequences marked found per partition",
			},
			[]string{"partition"},
		),

		foundRatio: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "seqdb_found_ratio",
				Help: "Fraction of sequences marked found per partition (0 when empty)",
			},
			[]string{"partition"},
		),

		batchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seqdb_batches_total",
				Help: "Table-key batches written",
			},
			[]string{"partition"},
		),

		rowsMatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seqdb_rows_matched_total",
				Help: "Rows matched by batch updates",
			},
			[]string{"partition"},
		),

		membersRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seqdb_members_rejected_total",
				Help: "Malformed batch members excluded from updates; partition is empty for members with no partition",
			},
			[]string{"partition"},
		),

		batchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seqdb_batch_duration_seconds",
				Help:    "Time to write one table-key batch",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms .. ~16s
			},
		),

		batchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seqdb_batch_size",
				Help:    "Sequences per table-key batch",
				Buckets: prometheus.ExponentialBuckets(1, 4, 9), // 1 .. 65536
			},
		),
	}
}

// BatchApplied records one written batch.
func (c *Collector) BatchApplied(t keyspace.TableKey, size int, matched int64, elapsed time.Duration) {
	p := string(t.Partition())
	c.batchesTotal.WithLabelValues(p).Inc()
	c.rowsMatched.WithLabelValues(p).Add(float64(matched))
	c.batchDuration.Observe(elapsed.Seconds())
	c.batchSize.Observe(float64(size))
}

// MembersRejected records excluded batch members.
func (c *Collector) MembersRejected(p keyspace.PartitionKey, n int) {
	c.membersRejected.WithLabelValues(string(p)).Add(float64(n))
}

// ObserveStats sets the store gauges from g.
func (c *Collector) ObserveStats(g stats.Global) {
	for _, s := range g.Partitions {
		c.ObservePartition(s)
	}
}

// ObservePartition sets the store gauges of one partition.
func (c *Collector) ObservePartition(s stats.Stats) {
	p := string(s.Partition)
	c.sequencesTotal.WithLabelValues(p).Set(float64(s.Total))
	c.sequencesFound.WithLabelValues(p).Set(float64(s.Found))
	c.foundRatio.WithLabelValues(p).Set(s.Percentage() / 100)
}

// Gatherer returns the registry for inspection.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
