// Package metrics exposes Prometheus counters and histograms over the
// insert/delete/query/checkpoint paths, per partition and per query
// shape. It mirrors the teacher's own metrics.Registry pattern: a
// package-level prometheus.Registry with MustRegister in init,
// generalized here from gRPC-server metrics to index-operation
// metrics since this module speaks no gRPC of its own.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	TriplesInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "idioms", Name: "triples_inserted_total", Help: "Triples inserted, per partition."},
		[]string{"partition"},
	)
	TriplesDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "idioms", Name: "triples_deleted_total", Help: "Triples deleted, per partition."},
		[]string{"partition"},
	)
	QueriesExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "idioms", Name: "queries_executed_total", Help: "Queries executed, per partition and key-side pattern shape."},
		[]string{"partition", "shape"},
	)
	CheckpointsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "idioms", Name: "checkpoints_total", Help: "Checkpoint attempts, per partition and result."},
		[]string{"partition", "result"},
	)
	RecoversTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "idioms", Name: "recovers_total", Help: "Recover attempts, per partition and result."},
		[]string{"partition", "result"},
	)
	ExecuteLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "idioms",
			Name:      "execute_latency_seconds",
			Help:      "Latency of Partition.Execute, per partition.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"partition"},
	)
	TransportIOSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "idioms",
			Name:      "transport_io_seconds",
			Help:      "Time spent in the underlying conn Read/Write during one TCP transport round trip.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction"},
	)
)

func init() {
	Registry.MustRegister(
		TriplesInserted,
		TriplesDeleted,
		QueriesExecuted,
		CheckpointsTotal,
		RecoversTotal,
		ExecuteLatency,
		TransportIOSeconds,
	)
}

// Handler serves Registry in the Prometheus text exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Result renders a bool outcome as the "ok"/"error" label value used
// by CheckpointsTotal and RecoversTotal.
func Result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
