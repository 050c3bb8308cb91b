package health

import (
	"encoding/json"
	"net/http"
)

// HTTPHandler serves the overall health. Degraded still answers 200.
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := c.Check()
		status := http.StatusOK
		if response.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeResponse(w, status, response)
	}
}

// ReadinessHandler answers 200 only when every readiness probe is healthy.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return binaryHandler(c.CheckReadiness)
}

// LivenessHandler answers 200 only when every liveness probe is healthy.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return binaryHandler(c.CheckLiveness)
}

func binaryHandler(check func() Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := check()
		status := http.StatusOK
		if response.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		writeResponse(w, status, response)
	}
}

func writeResponse(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
