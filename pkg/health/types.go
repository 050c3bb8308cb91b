// Package health exposes liveness, readiness and overall health of a
// shardkv process as JSON over HTTP.
package health

import (
	"sync"
	"time"
)

// Status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the outcome of one probe.
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

// CheckFunc runs a probe
type CheckFunc func() Check

// Checker holds the registered probes, split by the endpoint that runs them.
type Checker struct {
	mu          sync.RWMutex
	checks      map[string]CheckFunc
	readyChecks map[string]CheckFunc
	liveChecks  map[string]CheckFunc
	started     time.Time
}

// Response is the body of every health endpoint.
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    float64          `json:"uptime_seconds"`
}
