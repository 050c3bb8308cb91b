package health

import (
	"time"
)

// NewChecker creates a checker with no probes.
func NewChecker() *Checker {
	return &Checker{
		checks:      make(map[string]CheckFunc),
		readyChecks: make(map[string]CheckFunc),
		liveChecks:  make(map[string]CheckFunc),
		started:     time.Now(),
	}
}

// RegisterCheck adds a probe to the overall health endpoint.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// RegisterReadinessCheck adds a probe to the readiness endpoint.
func (c *Checker) RegisterReadinessCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readyChecks[name] = check
}

// RegisterLivenessCheck adds a probe to the liveness endpoint.
func (c *Checker) RegisterLivenessCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveChecks[name] = check
}

// Check runs the overall health probes
func (c *Checker) Check() Response {
	return c.run(func() map[string]CheckFunc { return c.checks })
}

// CheckReadiness runs the readiness probes
func (c *Checker) CheckReadiness() Response {
	return c.run(func() map[string]CheckFunc { return c.readyChecks })
}

// CheckLiveness runs the liveness probes
func (c *Checker) CheckLiveness() Response {
	return c.run(func() map[string]CheckFunc { return c.liveChecks })
}

func (c *Checker) run(pick func() map[string]CheckFunc) Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check),
		Uptime:    time.Since(c.started).Seconds(),
	}

	for name, probe := range pick() {
		start := time.Now()
		check := probe()
		if check.Name == "" {
			check.Name = name
		}
		check.Duration = time.Since(start)
		check.LastChecked = start
		response.Checks[name] = check

		// worst status wins
		switch {
		case check.Status == StatusUnhealthy:
			response.Status = StatusUnhealthy
		case check.Status == StatusDegraded && response.Status != StatusUnhealthy:
			response.Status = StatusDegraded
		}
	}

	return response
}
