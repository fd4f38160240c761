package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promQueryExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hyperbench_query_executions_total",
			Help: "Total number of benchmark query executions",
		},
		[]string{"vendor", "query", "status"},
	)

	promQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hyperbench_query_duration_seconds",
			Help:    "Benchmark query execution time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"vendor", "query"},
	)

	promConnectorOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hyperbench_connector_operations_total",
			Help: "Total number of connector operations",
		},
		[]string{"vendor", "operation", "status"},
	)

	promPoolWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hyperbench_pool_wait_seconds",
			Help:    "Time spent waiting for a pooled connection",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"vendor"},
	)

	promPoolInUse = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hyperbench_pool_connections_in_use",
			Help: "Number of pooled connections currently checked out",
		},
		[]string{"vendor"},
	)

	promStressQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hyperbench_stress_queries_total",
			Help: "Total number of stress worker executions",
		},
		[]string{"vendor", "status"},
	)
)
