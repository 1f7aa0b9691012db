package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/folio/internal/api/handlers"
	"github.com/wonny/folio/internal/artifacts"
	"github.com/wonny/folio/internal/contracts"
	"github.com/wonny/folio/internal/pipeline"
	"github.com/wonny/folio/pkg/logger"
)

type fakeBuilder struct {
	mu      sync.Mutex
	cfgs    []pipeline.RunConfig
	err     error
	started chan struct{}
	release chan struct{}
}

func (b *fakeBuilder) Run(_ context.Context, cfg pipeline.RunConfig) (*pipeline.RunResult, error) {
	b.mu.Lock()
	b.cfgs = append(b.cfgs, cfg)
	b.mu.Unlock()

	if b.started != nil {
		close(b.started)
		<-b.release
	}

	result := &pipeline.RunResult{
		RunID:           "run-1",
		CompletedStages: []string{"config", "universe", "prices", "valuation", "artifacts"},
		Dropped:         []string{"C"},
		Duration:        1500 * time.Millisecond,
	}
	if b.err != nil {
		result.Error = b.err
		return result, b.err
	}
	result.Status = contracts.RunStatusUpdated
	result.Success = true
	return result, nil
}

func newTestRouter(t *testing.T, b *fakeBuilder) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	log := logger.Nop()
	router := NewRouter(
		handlers.NewArtifactHandler(artifacts.NewReader(dir), log),
		handlers.NewBuildHandler(b, log),
		dir,
		log,
	)
	return router, dir
}

func do(router http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func writeArtifact(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestHealth(t *testing.T) {
	router, dir := newTestRouter(t, &fakeBuilder{})

	rec := do(router, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["artifacts"])

	for _, name := range artifacts.FileNames() {
		writeArtifact(t, dir, name, "{}")
	}
	rec = do(router, http.MethodGet, "/health")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["artifacts"])
}

func TestArtifactEndpoints(t *testing.T) {
	router, dir := newTestRouter(t, &fakeBuilder{})
	writeArtifact(t, dir, "performance.1y.json", `{"range":"1Y","points":[]}`)
	writeArtifact(t, dir, artifacts.MetricsFile, `{"portfolioName":"Growth"}`)
	writeArtifact(t, dir, artifacts.HoldingsFile, `{"holdings":[]}`)
	writeArtifact(t, dir, artifacts.PositionsFile, `{"positions":[]}`)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/api/performance/1y", http.StatusOK, `{"range":"1Y","points":[]}`},
		{"/api/performance/1Y", http.StatusOK, `{"range":"1Y","points":[]}`},
		{"/api/performance/max", http.StatusNotFound, ""},
		{"/api/performance/5y", http.StatusBadRequest, ""},
		{"/api/metrics", http.StatusOK, `{"portfolioName":"Growth"}`},
		{"/api/holdings", http.StatusOK, `{"holdings":[]}`},
		{"/api/positions", http.StatusOK, `{"positions":[]}`},
		{"/data/metrics.json", http.StatusOK, `{"portfolioName":"Growth"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(router, http.MethodGet, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestBuild(t *testing.T) {
	b := &fakeBuilder{}
	router, _ := newTestRouter(t, b)

	rec := do(router, http.MethodPost, "/api/build?force=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.BuildResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "updated", resp.Status)
	assert.Equal(t, []string{"C"}, resp.Dropped)
	assert.Equal(t, int64(1500), resp.DurationMs)

	rec = do(router, http.MethodPost, "/api/build")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, b.cfgs, 2)
	assert.True(t, b.cfgs[0].ForceRefresh)
	assert.False(t, b.cfgs[1].ForceRefresh)

	rec = do(router, http.MethodPost, "/api/build?force=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/api/build")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBuild_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"config", contracts.NewConfigError(contracts.StageConfig, nil, "weights sum to 0.5"), http.StatusUnprocessableEntity},
		{"exhausted", &contracts.StageError{Kind: contracts.ErrFetchExhausted, Stage: contracts.StageFetch}, http.StatusBadGateway},
		{"integrity", contracts.NewIntegrityError(contracts.StageValuation, "empty"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, &fakeBuilder{err: tt.err})
			rec := do(router, http.MethodPost, "/api/build")
			assert.Equal(t, tt.status, rec.Code)

			var resp handlers.BuildResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestBuild_RejectsConcurrentBuild(t *testing.T) {
	b := &fakeBuilder{started: make(chan struct{}), release: make(chan struct{})}
	router, _ := newTestRouter(t, b)

	done := make(chan int)
	go func() {
		done <- do(router, http.MethodPost, "/api/build").Code
	}()
	<-b.started

	rec := do(router, http.MethodPost, "/api/build")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(b.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, &fakeBuilder{})

	req := httptest.NewRequest(http.MethodOptions, "/api/build", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
