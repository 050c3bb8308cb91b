package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric the store and its HTTP API export. Each
// Registry owns its own prometheus.Registry so tests and multiple stores in
// one process do not collide.
type Registry struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Store
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	KeysInsertedTotal      prometheus.Counter
	KeysSkippedTotal       prometheus.Counter
	SearchResultsTotal     *prometheus.CounterVec
	ContainerWritesTotal   *prometheus.CounterVec
	WorkerTasksTotal       *prometheus.CounterVec
	IndexKeys              prometheus.Gauge

	// System
	UptimeSeconds prometheus.Gauge
	GoRoutines    prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry used by the server binary.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),
	}

	r.initHTTPMetrics()
	r.initStoreMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
