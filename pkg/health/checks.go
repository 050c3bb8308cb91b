package health

import (
	"os"
	"runtime"

	"github.com/dd0wney/shardkv/pkg/index"
)

// AliveCheck always reports healthy; it backs the liveness endpoint.
func AliveCheck() Check {
	return Check{Name: "alive", Status: StatusHealthy}
}

// DirectoryCheck verifies that dir exists and accepts new files, which is
// what every Insert needs to stage its temp containers.
func DirectoryCheck(dir string) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "data_dir",
			Details: map[string]any{"path": dir},
		}

		info, err := os.Stat(dir)
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		if !info.IsDir() {
			check.Status = StatusUnhealthy
			check.Message = "not a directory"
			return check
		}

		probe, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = "not writable: " + err.Error()
			return check
		}
		probe.Close()
		os.Remove(probe.Name())

		check.Status = StatusHealthy
		check.Message = "writable"
		return check
	}
}

// IndexCheck verifies that the key index at path decodes. A missing index
// is healthy: the store has simply not been written yet.
func IndexCheck(path string) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "index",
			Details: map[string]any{"path": path},
		}

		keys, err := index.Load(path)
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}

		check.Details["keys"] = keys.Len()
		check.Status = StatusHealthy
		return check
	}
}

// MemoryCheck reports heap usage and degrades when the live heap exceeds
// limitBytes. A zero limit never degrades.
func MemoryCheck(limitBytes uint64) CheckFunc {
	return func() Check {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		check := Check{
			Name: "memory",
			Details: map[string]any{
				"heap_alloc_bytes": m.HeapAlloc,
				"sys_bytes":        m.Sys,
				"goroutines":       runtime.NumGoroutine(),
			},
			Status: StatusHealthy,
		}
		if limitBytes > 0 && m.HeapAlloc > limitBytes {
			check.Status = StatusDegraded
			check.Message = "heap above limit"
		}
		return check
	}
}
