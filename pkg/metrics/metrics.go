package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStoreOperation records one Insert/Search call
func (r *Registry) RecordStoreOperation(operation string, err error, duration time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordInsert records how many keys an insert wrote and skipped
func (r *Registry) RecordInsert(inserted, skipped, indexSize int) {
	r.KeysInsertedTotal.Add(float64(inserted))
	r.KeysSkippedTotal.Add(float64(skipped))
	r.IndexKeys.Set(float64(indexSize))
}

// RecordSearch records search hits and misses
func (r *Registry) RecordSearch(hits, misses int) {
	r.SearchResultsTotal.WithLabelValues("hit").Add(float64(hits))
	r.SearchResultsTotal.WithLabelValues("miss").Add(float64(misses))
}

// RecordContainerWrite records one container rewrite
func (r *Registry) RecordContainerWrite(err error) {
	if err != nil {
		r.ContainerWritesTotal.WithLabelValues(StatusError).Inc()
		return
	}
	r.ContainerWritesTotal.WithLabelValues(StatusSuccess).Inc()
}

// RecordTasks records tasks handed to the worker pool
func (r *Registry) RecordTasks(operation string, n int) {
	r.WorkerTasksTotal.WithLabelValues(operation).Add(float64(n))
}

// UpdateSystemMetrics refreshes uptime and goroutine gauges
func (r *Registry) UpdateSystemMetrics() {
	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// IncHTTPRequestsInFlight marks the start of an HTTP request
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight marks the end of an HTTP request
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}
