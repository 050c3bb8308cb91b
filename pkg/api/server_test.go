package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/shardkv/pkg/api/middleware"
	"github.com/dd0wney/shardkv/pkg/health"
	"github.com/dd0wney/shardkv/pkg/metrics"
	"github.com/dd0wney/shardkv/pkg/shardkv"
)

func newTestServer(t *testing.T, maxBody int64) (*Server, *shardkv.Store) {
	t.Helper()
	reg := metrics.NewRegistry()
	store, err := shardkv.Open(shardkv.Options{
		Dir:         t.TempDir(),
		FileShards:  4,
		GroupShards: 4,
		NoSync:      true,
		Metrics:     reg,
	})
	require.NoError(t, err)

	checker := health.NewChecker()
	checker.RegisterReadinessCheck("data_dir", health.DirectoryCheck(store.Dir()))
	checker.RegisterLivenessCheck("alive", health.AliveCheck)

	return NewServer(Config{Store: store, Health: checker, Metrics: reg, MaxBodyBytes: maxBody}), store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestInsertAndGet(t *testing.T) {
	s, _ := newTestServer(t, 0)

	// "aGVsbG8=" is "hello"
	rec := do(t, s, http.MethodPost, "/v1/records", `{"records":[{"key":"1","value":"aGVsbG8="},{"key":"abc","value":""}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ins InsertResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ins))
	assert.Equal(t, 2, ins.Received)

	rec = do(t, s, http.MethodGet, "/v1/records/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "hello", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/v1/records/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, http.StatusNotFound, errResp.Code)
	assert.NotEmpty(t, errResp.RequestID)
}

func TestInsertWithoutReplaceKeepsFirstValue(t *testing.T) {
	s, store := newTestServer(t, 0)

	do(t, s, http.MethodPost, "/v1/records", `{"records":[{"key":"k","value":"MQ=="}]}`)
	do(t, s, http.MethodPost, "/v1/records", `{"records":[{"key":"k","value":"Mg=="}]}`)

	v, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	do(t, s, http.MethodPost, "/v1/records", `{"records":[{"key":"k","value":"Mg=="}],"replace":true}`)
	v, err = store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestSearch(t *testing.T) {
	s, store := newTestServer(t, 0)
	require.NoError(t, store.Insert([]shardkv.Pair{
		{Key: "0", Value: []byte("a")},
		{Key: "1", Value: []byte("b")},
	}, false))

	rec := do(t, s, http.MethodPost, "/v1/search", `{"keys":["0","1","4"],"max_parallel":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Results, 3)
	assert.Equal(t, 2, resp.Found)
	assert.Equal(t, 1, resp.Missing)

	byKey := map[string]ResultResponse{}
	for _, r := range resp.Results {
		byKey[r.Key] = r
	}
	assert.Equal(t, []byte("a"), byKey["0"].Value)
	assert.Equal(t, []byte("b"), byKey["1"].Value)
	assert.False(t, byKey["4"].Found)
}

func TestBadRequests(t *testing.T) {
	s, _ := newTestServer(t, 0)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/v1/records", `{"records":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/v1/records", `{"rows":[]}`, http.StatusBadRequest},
		{"no records", http.MethodPost, "/v1/records", `{"records":[]}`, http.StatusBadRequest},
		{"empty key", http.MethodPost, "/v1/records", `{"records":[{"key":""}]}`, http.StatusBadRequest},
		{"bad base64", http.MethodPost, "/v1/records", `{"records":[{"key":"a","value":"%%%"}]}`, http.StatusBadRequest},
		{"empty search", http.MethodPost, "/v1/search", `{"keys":[]}`, http.StatusBadRequest},
		{"negative parallel", http.MethodPost, "/v1/search", `{"keys":["a"],"max_parallel":-2}`, http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/v1/records", "", http.StatusMethodNotAllowed},
		{"unknown path", http.MethodGet, "/v2/anything", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, 32)
	body := `{"records":[{"key":"` + strings.Repeat("k", 64) + `"}]}`

	rec := do(t, s, http.MethodPost, "/v1/records", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStats(t *testing.T) {
	s, store := newTestServer(t, 0)
	require.NoError(t, store.Insert([]shardkv.Pair{{Key: "1", Value: []byte("x")}, {Key: "2", Value: []byte("y")}}, false))

	rec := do(t, s, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats shardkv.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 2, stats.IndexedKeys)
	assert.Equal(t, 2, stats.ContainerFiles)
	assert.Equal(t, 4, stats.FileShards)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	s, _ := newTestServer(t, 0)

	for _, path := range []string{"/health", "/health/ready", "/health/live"} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	do(t, s, http.MethodGet, "/v1/records/nope", "")
	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `shardkv_http_requests_total{method="GET",path="/v1/records/{key}",status="404"} 1`)
}

func TestRequestIDEchoed(t *testing.T) {
	s, _ := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-7")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "trace-7", rec.Header().Get(middleware.RequestIDHeader))
}

func TestResultValueIsBase64(t *testing.T) {
	out, err := json.Marshal(ResultResponse{Key: "k", Value: []byte("hello"), Found: true})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte(`"value":"aGVsbG8="`)))
}

func TestLocate(t *testing.T) {
	s, _ := newTestServer(t, 0)

	rec := do(t, s, http.MethodGet, "/v1/locate/6", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var p shardkv.Placement
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, shardkv.Placement{Key: "6", File: "part.2.shard", FileShard: 2, GroupShard: 0}, p)
}
