package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardkv_store_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"operation", "status"},
	)

	r.StoreOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shardkv_store_operation_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	r.KeysInsertedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "shardkv_keys_inserted_total",
			Help: "Keys written to container files",
		},
	)

	r.KeysSkippedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "shardkv_keys_skipped_total",
			Help: "Keys skipped on insert because the index already had them",
		},
	)

	r.SearchResultsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardkv_search_results_total",
			Help: "Search results by outcome",
		},
		[]string{"outcome"},
	)

	r.ContainerWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardkv_container_writes_total",
			Help: "Container file rewrites by status",
		},
		[]string{"status"},
	)

	r.WorkerTasksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shardkv_worker_tasks_total",
			Help: "Tasks dispatched to the worker pool",
		},
		[]string{"operation"},
	)

	r.IndexKeys = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "shardkv_index_keys",
			Help: "Number of keys in the persisted index after the last insert",
		},
	)
}
