package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/hwinsight/hic/pkg/config"
	"github.com/hwinsight/hic/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *store.SQLiteStore) {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	log := slog.New(slog.DiscardHandler)
	runner := NewJobRunner(st, log, cfg.Assess.CommandTimeoutD)
	t.Cleanup(runner.Stop)

	return NewServer(cfg, st, runner, log), st
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestCreateAndListHosts(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/hosts", map[string]any{
		"hostname": "raider",
		"address":  "192.168.1.50",
		"tags":     []string{"lab"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created store.Host
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.AllowPrivileged, "privileged collection defaults on")

	rec = doJSON(t, h, http.MethodGet, "/api/v1/hosts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var hosts []store.Host
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hosts))
	require.Len(t, hosts, 1)
	assert.Equal(t, "raider", hosts[0].Hostname)
}

func TestCreateHostValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/hosts", map[string]any{"address": "10.0.0.1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hosts", bytes.NewBufferString("{broken"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateHostConflict(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	h := srv.Handler()

	body := map[string]any{"hostname": "dup"}
	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/api/v1/hosts", body).Code)
	assert.Equal(t, http.StatusConflict, doJSON(t, h, http.MethodPost, "/api/v1/hosts", body).Code)
}

func TestCreateJobForUnknownHost(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/jobs", map[string]any{"host_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateJobAcceptedAndRuns(t *testing.T) {
	srv, st := newTestServer(t, nil)
	h := srv.Handler()

	host := &store.Host{Hostname: "local-test", AllowPrivileged: false, IsActive: true}
	require.NoError(t, st.CreateHost(context.Background(), host))

	rec := doJSON(t, h, http.MethodPost, "/api/v1/jobs", map[string]any{"host_id": host.ID})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job store.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, store.JobQueued, job.Status)

	// The background worker assesses the local machine; wait for a
	// terminal status.
	deadline := time.After(60 * time.Second)
	for {
		got, err := st.GetJob(context.Background(), job.ID)
		require.NoError(t, err)
		if got.Status == store.JobCompleted || got.Status == store.JobFailed {
			require.Equal(t, store.JobCompleted, got.Status, "job error: %s", got.ErrorMessage)
			break
		}
		select {
		case <-deadline:
			t.Fatalf("job never finished, status %s", got.Status)
		case <-time.After(100 * time.Millisecond):
		}
	}

	rep, err := st.GetReportByJobID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Contains(t, rep.RenderedMarkdown, "# Hardware Assessment")
	assert.NotEmpty(t, rep.RawPayload)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/reports/"+job.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetJobNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReportNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/reports/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.API.APIKey = "topsecret"
	})
	h := srv.Handler()

	// Health stays open.
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/health", nil).Code)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/hosts", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hosts", nil)
	req.Header.Set("Authorization", "Bearer topsecret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.API.EnableCORS = true
	})
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/hosts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestJobRunnerQueueFull(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "q.db"))
	require.NoError(t, err)
	defer st.Close()

	host := &store.Host{Hostname: "q-host"}
	require.NoError(t, st.CreateHost(context.Background(), host))
	job, err := st.CreateJob(context.Background(), host.ID)
	require.NoError(t, err)

	r := &JobRunner{
		store:  st,
		logger: slog.New(slog.DiscardHandler),
		queue:  make(chan string), // unbuffered and nobody reading
		stop:   make(chan struct{}),
	}

	r.Enqueue(job.ID)

	got, err := st.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, store.JobFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "queue full")
}
