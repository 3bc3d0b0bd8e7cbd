package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ramzan118/gke-node-backend/internal/config"
	"github.com/ramzan118/gke-node-backend/internal/metrics"
	"github.com/ramzan118/gke-node-backend/internal/model"
	"github.com/ramzan118/gke-node-backend/internal/repository"
)

const indexHTML = "<!doctype html><title>app</title><div id=\"root\"></div>"

type fakeStore struct {
	users []model.User
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]model.User, error) { return f.users, nil }
func (f *fakeStore) Ping(ctx context.Context) error                      { return nil }

func writeBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"index.html":        indexHTML,
		"static/js/main.js": "console.log('app')",
	}
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func newTestRouter(t *testing.T) (http.Handler, *repository.Handle) {
	t.Helper()

	cfg := &config.Config{AppEnv: "development", StaticDir: writeBundle(t)}
	handle := repository.NewHandle()
	registry := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := setupRouter(cfg, handle, metrics.NewPrometheus(registry), registry, logger)
	return r, handle
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter_UsersLifecycle(t *testing.T) {
	r, handle := newTestRouter(t)

	before := do(t, r, http.MethodGet, "/api/users")
	if before.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 before init, got %d", before.Code)
	}
	if before.Body.String() != "Database not initialized." {
		t.Errorf("unexpected body before init: %q", before.Body.String())
	}

	if err := handle.Set(&fakeStore{users: []model.User{{UserID: "u-1", Name: "Ada"}}}); err != nil {
		t.Fatalf("failed to set handle: %v", err)
	}

	after := do(t, r, http.MethodGet, "/api/users")
	if after.Code != http.StatusOK {
		t.Fatalf("expected 200 after init, got %d", after.Code)
	}

	var users []map[string]any
	if err := json.NewDecoder(after.Body).Decode(&users); err != nil {
		t.Fatalf("failed to decode users: %v", err)
	}
	if len(users) != 1 || users[0]["UserId"] != "u-1" {
		t.Errorf("unexpected users: %v", users)
	}
}

func TestRouter_ReadinessFollowsHandle(t *testing.T) {
	r, handle := newTestRouter(t)

	if rec := do(t, r, http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before init, got %d", rec.Code)
	}

	if err := handle.Set(&fakeStore{}); err != nil {
		t.Fatalf("failed to set handle: %v", err)
	}

	if rec := do(t, r, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("expected 200 after init, got %d", rec.Code)
	}

	if rec := do(t, r, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("expected 200 from /healthz, got %d", rec.Code)
	}
}

func TestRouter_SPAFallback(t *testing.T) {
	r, _ := newTestRouter(t)

	root := do(t, r, http.MethodGet, "/")
	if root.Code != http.StatusOK || root.Body.String() != indexHTML {
		t.Fatalf("unexpected root response: %d %q", root.Code, root.Body.String())
	}

	for _, path := range []string{"/profile", "/users/7", "/api/unknown", "/static/js/missing.js"} {
		rec := do(t, r, http.MethodGet, path)
		if rec.Code != http.StatusOK || rec.Body.String() != indexHTML {
			t.Errorf("%s: expected entry document, got %d %q", path, rec.Code, rec.Body.String())
		}
	}

	asset := do(t, r, http.MethodGet, "/static/js/main.js")
	if asset.Code != http.StatusOK || asset.Body.String() != "console.log('app')" {
		t.Errorf("unexpected asset response: %d %q", asset.Code, asset.Body.String())
	}

	head := do(t, r, http.MethodHead, "/static/js/main.js")
	if head.Code != http.StatusOK {
		t.Errorf("expected 200 for HEAD, got %d", head.Code)
	}
}

func TestRouter_HeadUsers(t *testing.T) {
	r, handle := newTestRouter(t)

	before := do(t, r, http.MethodHead, "/api/users")
	if before.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 before init, got %d", before.Code)
	}
	if ct := before.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain before init, got %s", ct)
	}
	if v := before.Header().Values("X-Content-Type-Options"); len(v) != 1 || v[0] != "nosniff" {
		t.Errorf("expected a single nosniff header, got %v", v)
	}

	if err := handle.Set(&fakeStore{}); err != nil {
		t.Fatalf("failed to set handle: %v", err)
	}

	after := do(t, r, http.MethodHead, "/api/users")
	if after.Code != http.StatusOK {
		t.Errorf("expected 200 after init, got %d", after.Code)
	}
	if ct := after.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json after init, got %s", ct)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/users")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := newTestRouter(t)

	do(t, r, http.MethodGet, "/api/users")

	rec := do(t, r, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), `route="/api/users"`) {
		t.Errorf("expected /api/users request to be recorded, got:\n%s", rec.Body.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

const mainExitEnv = "GKE_BACKEND_RUN_MAIN"

// TestMainExit runs main in a child process and checks that startup
// failures terminate it with exit status 1.
func TestMainExit(t *testing.T) {
	if os.Getenv(mainExitEnv) == "1" {
		main()
		return
	}

	tests := []struct {
		name          string
		env           func(t *testing.T) []string
		wantListening bool
	}{
		{
			name: "missing project id",
			env: func(t *testing.T) []string {
				return []string{
					"SPANNER_CONNECTION_STRING_SECRET_ID=spanner-conn",
					"STATIC_DIR=" + writeBundle(t),
				}
			},
		},
		{
			name: "missing secret id",
			env: func(t *testing.T) []string {
				return []string{
					"GCP_PROJECT_ID=demo",
					"STATIC_DIR=" + writeBundle(t),
				}
			},
		},
		{
			name: "initialization fails after listening",
			env: func(t *testing.T) []string {
				return []string{
					"GCP_PROJECT_ID=demo",
					"SPANNER_CONNECTION_STRING_SECRET_ID=spanner-conn",
					"GOOGLE_APPLICATION_CREDENTIALS=" + filepath.Join(t.TempDir(), "missing.json"),
					"PORT=" + strconv.Itoa(freePort(t)),
					"INIT_TIMEOUT=10s",
					"METRICS_ENABLED=false",
					"STATIC_DIR=" + writeBundle(t),
				}
			},
			wantListening: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=^TestMainExit$")
			cmd.Env = append(baseEnv(), mainExitEnv+"=1")
			cmd.Env = append(cmd.Env, tt.env(t)...)

			out, err := cmd.CombinedOutput()

			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("expected process to exit with an error, got %v\n%s", err, out)
			}
			if code := exitErr.ExitCode(); code != 1 {
				t.Errorf("expected exit code 1, got %d\n%s", code, out)
			}

			listening := strings.Contains(string(out), "server listening")
			if listening != tt.wantListening {
				t.Errorf("expected listening=%v, got %v\n%s", tt.wantListening, listening, out)
			}
		})
	}
}

// baseEnv keeps only what the child process needs to run, so settings from
// the parent environment cannot leak into main.
func baseEnv() []string {
	var env []string
	for _, key := range []string{"PATH", "HOME", "TMPDIR", "SYSTEMROOT"} {
		if v, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+v)
		}
	}
	return env
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}
