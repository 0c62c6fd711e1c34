package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"media-router/internal/config"
	"media-router/internal/database"
	"media-router/internal/demux"
	"media-router/internal/launcher"
	"media-router/internal/library"
	"media-router/internal/playlist"
)

type fakeHistory struct {
	plays []database.Play
	limit int
	err   error
}

func (f *fakeHistory) RecentPlays(_ context.Context, limit int) ([]database.Play, error) {
	f.limit = limit
	return f.plays, f.err
}

type testEnv struct {
	h          *Handlers
	router     *mux.Router
	root       string
	configPath string
	lib        *library.Library
	launcher   *launcher.Launcher
}

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
	}
}

func mustCommand(t *testing.T, text string) demux.Command {
	t.Helper()
	cmd, err := demux.ParseCommand(text)
	if err != nil {
		t.Fatalf("ParseCommand(%q) returned error: %v", text, err)
	}
	return cmd
}

// newTestEnv builds handlers over a library containing amiga/mdat.intro,
// song.flac and tune.mod, with a uade rule for TFMX files.
func newTestEnv(t *testing.T, history HistoryStore) *testEnv {
	t.Helper()

	root := t.TempDir()
	writeFiles(t, root, "amiga/mdat.intro", "song.flac", "tune.mod", "cover.jpg")

	cfg := config.Default()
	cfg.SetRoot(root)
	cfg.CustomDemuxers = demux.NewTable(demux.Entry{
		Name:       "uade",
		Predicates: []demux.Predicate{demux.BeginsWith("mdat.")},
		ReaderCmd:  mustCommand(t, "uade123 -c {}"),
		ExtraArgs:  []string{"--demuxer=rawaudio"},
	})

	lib := library.New(cfg.PlaylistOptions(), 0, false)
	lib.Rescan(library.TriggerStartup)

	l := launcher.New(nil, true)
	t.Cleanup(l.Cleanup)

	configPath := filepath.Join(t.TempDir(), "config.json")
	h := New(cfg, configPath, lib, l, history, launcher.DefaultPlayer())

	return &testEnv{
		h:          h,
		router:     NewRouter(h),
		root:       root,
		configPath: configPath,
		lib:        lib,
		launcher:   l,
	}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func (e *testEnv) savedConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(e.configPath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	return cfg
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSONError(w, "boom", http.StatusTeapot)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected 418, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}
	if body := decode[map[string]string](t, w); body["error"] != "boom" {
		t.Errorf("Unexpected body %v", body)
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query    string
		expected int
		wantErr  bool
	}{
		{"", 7, false},
		{"n=3", 3, false},
		{"n=-1", -1, false},
		{"n=abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, http.NoBody)
			got, err := queryInt(req, "n", 7)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := decode[HealthResponse](t, w)
	if resp.Status != statusHealthy || !resp.Ready {
		t.Errorf("Expected healthy, got %+v", resp)
	}
	if resp.PlaylistItems != 3 || resp.Rules != 1 || resp.Root != env.root {
		t.Errorf("Unexpected counts %+v", resp)
	}
}

func TestHealthCheckBeforeFirstBuild(t *testing.T) {
	lib := library.New(playlist.Options{Root: t.TempDir()}, 0, false)
	h := New(nil, "", lib, nil, nil, launcher.DefaultPlayer())

	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
	if resp := decode[HealthResponse](t, w); resp.Status != statusStarting {
		t.Errorf("Expected starting, got %s", resp.Status)
	}

	w = httptest.NewRecorder()
	h.ReadinessCheck(w, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 from readiness, got %d", w.Code)
	}
}

func TestLivenessAndReadiness(t *testing.T) {
	env := newTestEnv(t, nil)

	if w := env.do(t, http.MethodGet, "/livez", ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200 from livez, got %d", w.Code)
	}
	if w := env.do(t, http.MethodHead, "/livez", ""); w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("Expected empty 200 for HEAD, got %d %q", w.Code, w.Body.String())
	}
	w := env.do(t, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from readyz, got %d", w.Code)
	}
	if body := decode[map[string]string](t, w); body["status"] != "ready" {
		t.Errorf("Unexpected body %v", body)
	}
}

func TestGetVersion(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/version", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Header().Get("Cache-Control") != "no-cache" {
		t.Error("Expected no-cache header")
	}
	body := decode[map[string]string](t, w)
	if body["version"] == "" || body["goVersion"] == "" {
		t.Errorf("Expected build info, got %v", body)
	}
}

func TestGetLog(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/log?n=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := decode[LogResponse](t, w)
	if len(resp.Lines) > 2 {
		t.Errorf("Expected at most 2 lines, got %d", len(resp.Lines))
	}

	if w := env.do(t, http.MethodGet, "/api/log?n=x", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad n, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		env := newTestEnv(t, nil)
		if w := env.do(t, http.MethodGet, "/api/history", ""); w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", w.Code)
		}
	})

	t.Run("default limit", func(t *testing.T) {
		history := &fakeHistory{plays: []database.Play{{ID: 2, Path: "tune.mod"}, {ID: 1, Path: "song.flac"}}}
		env := newTestEnv(t, history)

		w := env.do(t, http.MethodGet, "/api/history", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		plays := decode[[]database.Play](t, w)
		if len(plays) != 2 || plays[0].ID != 2 {
			t.Errorf("Unexpected plays %+v", plays)
		}
		if history.limit != database.DefaultHistoryLimit {
			t.Errorf("Expected default limit, got %d", history.limit)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		history := &fakeHistory{plays: []database.Play{}}
		env := newTestEnv(t, history)

		if w := env.do(t, http.MethodGet, "/api/history?limit=5", ""); w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if history.limit != 5 {
			t.Errorf("Expected limit 5, got %d", history.limit)
		}
		if w := env.do(t, http.MethodGet, "/api/history?limit=many", ""); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("store error", func(t *testing.T) {
		env := newTestEnv(t, &fakeHistory{err: os.ErrPermission})
		if w := env.do(t, http.MethodGet, "/api/history", ""); w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", w.Code)
		}
	})
}
