package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/config"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/logging"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/process/processtest"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/window/windowtest"
)

// fakeADB answers adb invocations from a table keyed by the joined args.
type fakeADB map[string]string

func (f fakeADB) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	if out, ok := f[strings.Join(args, " ")]; ok {
		return []byte(out), nil
	}
	return nil, errors.New("unexpected adb call")
}

func testADB() fakeADB {
	return fakeADB{
		"devices -l": "List of devices attached\n" +
			"R58M12345      device usb:1-1 product:p model:Galaxy_S21 device:d transport_id:1\n",
		"-s R58M12345 shell getprop ro.product.model": "Galaxy S21\n",
		"-s R58M12345 shell wm size":                  "Physical size: 1080x2400\n",
	}
}

type serverFixture struct {
	srv     *Server
	spawner *processtest.Spawner
	desktop *windowtest.Desktop
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *serverFixture {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	cfg.Supervisor.Grace = 0
	cfg.Supervisor.Interval = 10 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	f := &serverFixture{
		spawner: processtest.NewSpawner(),
		desktop: windowtest.NewDesktop(),
	}
	srv, err := New(cfg, Dependencies{
		Runner:  testADB(),
		Spawner: f.spawner,
		Windows: f.desktop,
		Logger:  &logging.Logger{Logger: zaptest.NewLogger(t)},
	})
	require.NoError(t, err)
	f.srv = srv
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Close(ctx)
	})
	return f
}

func (f *serverFixture) request(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestServerServesControlAPI(t *testing.T) {
	f := newTestServer(t, nil)

	w := f.request(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "closed", health["adb"])
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w = f.request(t, http.MethodGet, "/devices")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"model":"Galaxy S21"`)

	w = f.request(t, http.MethodPost, "/sessions/R58M12345")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"model":"Galaxy S21"`)

	calls := f.spawner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "scrcpy", calls[0].Name)
	assert.Equal(t, []string{"-s", "R58M12345", "--video-bit-rate", "8M", "--video-codec", "h264"}, calls[0].Args)

	w = f.request(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "mirrordeck_sessions_active 1")
	assert.Contains(t, body, "mirrordeck_http_requests_total")
	assert.Contains(t, body, "go_goroutines")
}

func TestServerCORSAllowsLocalOrigin(t *testing.T) {
	f := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerRejectsBadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preset: ultra\n"), 0o644))

	cfg := config.Default()
	cfg.Mirror.ProfilePath = path
	_, err := New(cfg, Dependencies{
		Runner:  testADB(),
		Spawner: processtest.NewSpawner(),
		Windows: windowtest.NewDesktop(),
		Logger:  &logging.Logger{Logger: zaptest.NewLogger(t)},
	})
	assert.Error(t, err)
}

func TestServerUsesDefaultPreset(t *testing.T) {
	f := newTestServer(t, func(cfg *config.Config) {
		cfg.Mirror.DefaultPreset = "fast"
	})
	assert.Equal(t, 1024, f.srv.Mirror().Options().MaxSize)
}

func TestServerHotReloadsProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(path, []byte("preset = \"fast\"\n"), 0o644))

	f := newTestServer(t, func(cfg *config.Config) {
		cfg.Mirror.ProfilePath = path
		cfg.Mirror.ProfileWatch = true
	})
	require.Equal(t, 60, f.srv.Mirror().Options().MaxFPS)

	require.NoError(t, os.WriteFile(path, []byte("preset = \"fast\"\n[global]\nmax_fps = 30\n"), 0o644))
	require.Eventually(t, func() bool {
		return f.srv.Mirror().Options().MaxFPS == 30
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServerCloseStopsSessions(t *testing.T) {
	f := newTestServer(t, nil)

	w := f.request(t, http.MethodPost, "/sessions/R58M12345")
	require.Equal(t, http.StatusCreated, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.srv.Close(ctx))

	assert.Zero(t, f.spawner.Live())
	assert.Empty(t, f.srv.Mirror().Sessions())
}

func TestServerRunAndClose(t *testing.T) {
	f := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.Port = "0"
	})

	done := make(chan error, 1)
	go func() { done <- f.srv.Run() }()

	// Run has no readiness signal; give ListenAndServe a moment.
	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.srv.Close(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
