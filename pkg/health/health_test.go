package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dd0wney/shardkv/pkg/index"
)

func TestNewChecker(t *testing.T) {
	c := NewChecker()

	if c.checks == nil || c.readyChecks == nil || c.liveChecks == nil {
		t.Fatal("check maps not initialized")
	}

	resp := c.Check()
	if resp.Status != StatusHealthy {
		t.Errorf("empty checker status = %s, want healthy", resp.Status)
	}
	if resp.Uptime < 0 {
		t.Errorf("negative uptime %f", resp.Uptime)
	}
}

func TestProbesRunOnlyOnTheirEndpoint(t *testing.T) {
	c := NewChecker()

	var overall, ready, live int
	c.RegisterCheck("overall", func() Check { overall++; return Check{Status: StatusHealthy} })
	c.RegisterReadinessCheck("ready", func() Check { ready++; return Check{Status: StatusHealthy} })
	c.RegisterLivenessCheck("live", func() Check { live++; return Check{Status: StatusHealthy} })

	c.Check()
	c.CheckReadiness()
	c.CheckReadiness()
	resp := c.CheckLiveness()

	if overall != 1 || ready != 2 || live != 1 {
		t.Errorf("probe calls = %d/%d/%d, want 1/2/1", overall, ready, live)
	}
	if got := resp.Checks["live"].Name; got != "live" {
		t.Errorf("unnamed check got name %q, want registration name", got)
	}
}

func TestStatusAggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for i, s := range tt.statuses {
				s := s
				c.RegisterCheck(string(rune('a'+i)), func() Check { return Check{Status: s} })
			}
			if got := c.Check().Status; got != tt.want {
				t.Errorf("status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDirectoryCheck(t *testing.T) {
	dir := t.TempDir()

	if got := DirectoryCheck(dir)(); got.Status != StatusHealthy {
		t.Errorf("existing dir: status = %s (%s)", got.Status, got.Message)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	if got := DirectoryCheck(filepath.Join(dir, "missing"))(); got.Status != StatusUnhealthy {
		t.Errorf("missing dir: status = %s", got.Status)
	}

	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got := DirectoryCheck(file)(); got.Status != StatusUnhealthy {
		t.Errorf("plain file: status = %s", got.Status)
	}
}

func TestIndexCheck(t *testing.T) {
	dir := t.TempDir()
	path := index.Path(dir)

	if got := IndexCheck(path)(); got.Status != StatusHealthy {
		t.Errorf("missing index should be healthy, got %s", got.Status)
	}

	if err := index.Save(path, index.NewKeySet("a", "b")); err != nil {
		t.Fatal(err)
	}
	got := IndexCheck(path)()
	if got.Status != StatusHealthy {
		t.Fatalf("saved index: status = %s (%s)", got.Status, got.Message)
	}
	if got.Details["keys"] != 2 {
		t.Errorf("keys detail = %v, want 2", got.Details["keys"])
	}

	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := IndexCheck(path)(); got.Status != StatusUnhealthy {
		t.Errorf("corrupt index: status = %s", got.Status)
	}
}

func TestMemoryCheck(t *testing.T) {
	if got := MemoryCheck(0)(); got.Status != StatusHealthy {
		t.Errorf("no limit: status = %s", got.Status)
	}
	if got := MemoryCheck(1)(); got.Status != StatusDegraded {
		t.Errorf("1 byte limit: status = %s", got.Status)
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		overall int
		binary  int
	}{
		{"healthy", StatusHealthy, http.StatusOK, http.StatusOK},
		{"degraded", StatusDegraded, http.StatusOK, http.StatusServiceUnavailable},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			probe := func() Check { return Check{Status: tt.status} }
			c.RegisterCheck("p", probe)
			c.RegisterReadinessCheck("p", probe)
			c.RegisterLivenessCheck("p", probe)

			handlers := []struct {
				h    http.HandlerFunc
				want int
			}{
				{c.HTTPHandler(), tt.overall},
				{c.ReadinessHandler(), tt.binary},
				{c.LivenessHandler(), tt.binary},
			}
			for _, h := range handlers {
				rec := httptest.NewRecorder()
				h.h(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

				if rec.Code != h.want {
					t.Errorf("code = %d, want %d", rec.Code, h.want)
				}
				if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("content type = %q", ct)
				}
				var resp Response
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if resp.Status != tt.status {
					t.Errorf("body status = %s, want %s", resp.Status, tt.status)
				}
			}
		})
	}
}

func TestConcurrentRegistration(t *testing.T) {
	c := NewChecker()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.RegisterCheck(string(rune('a'+i)), AliveCheck)
		}(i)
		go func() {
			defer wg.Done()
			c.Check()
		}()
	}
	wg.Wait()

	if got := len(c.Check().Checks); got != 20 {
		t.Errorf("registered checks = %d, want 20", got)
	}
}
