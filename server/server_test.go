package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesrecon/database"
	"salesrecon/internal/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	t.Setenv("GIN_MODE", "test")

	db, err := database.NewSalesDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.GetDefaults()
	if mutate != nil {
		mutate(cfg)
	}
	srv, err := New(cfg, db, nil)
	require.NoError(t, err)
	return srv
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)

	_, err = New(config.GetDefaults(), nil, nil)
	assert.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(srv, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Contains(t, w.Body.String(), `"database"`)

	w = get(srv, "/api/regions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(srv, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `salesrecon_http_requests_total{route="/api/regions",status="200"} 1`)
	assert.Contains(t, body, "salesrecon_registry_cache_loads")
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.RateLimitRPS = 0.001
		cfg.RateLimitBurst = 1
	})

	assert.Equal(t, http.StatusOK, get(srv, "/api/regions").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(srv, "/api/regions").Code)
	assert.Equal(t, http.StatusOK, get(srv, "/health").Code, "health is not rate limited")
}

func TestCustomReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"settlements": ["Ірпінь"], "streets": ["Університетська"]}`), 0o644))

	srv := newTestServer(t, func(cfg *config.Config) { cfg.ReferencePath = path })

	req := httptest.NewRequest(http.MethodPost, "/api/address/resolve", strings.NewReader(`{"address": "м. Ірпінь, вул. Університетська, 2"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"full_address":"Ірпінь, вул. Університетська, 2"`)

	_, err := New(&config.Config{ReferencePath: filepath.Join(t.TempDir(), "missing.json")}, srv.db, nil)
	assert.Error(t, err)
}

func TestShutdownWithoutStart(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestStartAndShutdown(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) { cfg.Port = "0" })

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, srv.Shutdown(context.Background()))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestSwaggerDoc(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(srv, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"swagger": "2.0"`)
	assert.Contains(t, body, `"/api/sales/actual"`)
	assert.Contains(t, body, `"/api/upload"`)

	assert.Equal(t, http.StatusOK, get(srv, "/swagger/index.html").Code)
}
