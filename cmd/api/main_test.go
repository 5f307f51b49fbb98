package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper/internal/config"
	"github.com/yourusername/gatekeeper/internal/metrics"
	"github.com/yourusername/gatekeeper/internal/users"
)

type emptyUserStore struct{}

func (emptyUserStore) GetByUsername(context.Context, string) (*users.User, error) {
	return nil, users.ErrNotFound
}

func (emptyUserStore) Create(_ context.Context, u *users.User) error {
	u.ID = 1
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		GinMode:            gin.TestMode,
		SessionSecret:      "test-secret",
		SessionMaxAge:      time.Hour,
		SessionBackend:     config.SessionBackendMemory,
		BcryptCost:         4,
		CORSAllowedOrigins: "http://localhost:5173, http://localhost:3000",
	}
}

func newTestRouter(t *testing.T, checks map[string]func(context.Context) error) *gin.Engine {
	t.Helper()
	router, err := newRouter(testConfig(), routerDeps{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		users:    emptyUserStore{},
		sessions: memstore.NewStore([]byte("test-secret")),
		checks:   checks,
		metrics:  metrics.NewAuth(),
	})
	require.NoError(t, err)
	return router
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
	assert.NotNil(t, cmd.RunE)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]func(context.Context) error
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "no dependencies",
			checks:     nil,
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{},
		},
		{
			name: "all healthy",
			checks: map[string]func(context.Context) error{
				"postgres": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name: "redis down",
			checks: map[string]func(context.Context) error{
				"postgres": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"postgres": "ok", "redis": "unavailable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.checks)
			rec := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Status  string            `json:"status"`
				Service string            `json:"service"`
				Checks  map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "gatekeeper", body.Service)
			assert.Equal(t, tt.wantChecks, body.Checks)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		method       string
		path         string
		wantStatus   int
		wantLocation string
	}{
		{method: http.MethodGet, path: "/", wantStatus: http.StatusFound, wantLocation: "/login"},
		{method: http.MethodGet, path: "/api/", wantStatus: http.StatusFound, wantLocation: "/api/login"},
		{method: http.MethodGet, path: "/login", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/api/signup", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/dashboard", wantStatus: http.StatusFound, wantLocation: "/login"},
		{method: http.MethodGet, path: "/api/dashboard", wantStatus: http.StatusFound, wantLocation: "/api/login"},
		{method: http.MethodPost, path: "/logout", wantStatus: http.StatusFound, wantLocation: "/login"},
		{method: http.MethodGet, path: "/static/style.css", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(router, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = serve(router, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := serve(router, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitOrigins(" http://a ,,http://b "))
	assert.Empty(t, splitOrigins(""))
}

func TestSetupSessions(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		cfg := testConfig()
		backend, err := setupSessions(cfg)
		require.NoError(t, err)
		assert.NotNil(t, backend.store)
		assert.Nil(t, backend.ping)
		assert.NoError(t, backend.close())
	})

	t.Run("redis", func(t *testing.T) {
		cfg := testConfig()
		cfg.SessionBackend = config.SessionBackendRedis
		cfg.RedisURL = "redis://127.0.0.1:6379/0"

		backend, err := setupSessions(cfg)
		require.NoError(t, err)
		assert.NotNil(t, backend.store)
		assert.NotNil(t, backend.ping)
		assert.NoError(t, backend.close())
	})

	t.Run("invalid redis url", func(t *testing.T) {
		cfg := testConfig()
		cfg.SessionBackend = config.SessionBackendRedis
		cfg.RedisURL = "http://not-redis"

		_, err := setupSessions(cfg)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := testConfig()
		cfg.SessionBackend = "etcd"

		_, err := setupSessions(cfg)
		assert.Error(t, err)
	})
}
