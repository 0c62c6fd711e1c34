package launcher

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"media-router/internal/database"
	"media-router/internal/demux"
	"media-router/internal/logging"
	"media-router/internal/playlist"
)

type fakeHistory struct {
	mu       sync.Mutex
	plays    []database.Play
	finished map[int64]*int
	results  map[int64]string
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{finished: make(map[int64]*int), results: make(map[int64]string)}
}

func (h *fakeHistory) RecordPlay(_ context.Context, p database.Play) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.plays = append(h.plays, p)
	return int64(len(h.plays)), nil
}

func (h *fakeHistory) FinishPlay(_ context.Context, id int64, _ time.Time, exitCode *int, errMsg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished[id] = exitCode
	h.results[id] = errMsg
	return nil
}

func (h *fakeHistory) finishedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.finished)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func songFile(t *testing.T, name string) (root string, item playlist.Item) {
	t.Helper()
	root = t.TempDir()
	if err := os.WriteFile(filepath.Join(root, name), []byte("song"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	return root, playlist.Item{Path: name}
}

func TestLaunchDefaultRoute(t *testing.T) {
	requireShell(t)
	root, item := songFile(t, "song.flac")
	out := filepath.Join(root, "out")

	history := newFakeHistory()
	l := New(history, true)
	defer l.Cleanup()

	plan := Plan{
		Item:   item.Path,
		Path:   filepath.Join(root, item.Path),
		Player: Stage{Program: "sh", Args: []string{"-c", `printf '%s' "$0" > "$1"`, filepath.Join(root, item.Path), out}},
	}

	info, err := l.Launch(context.Background(), plan)
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if info.ID == 0 {
		t.Error("Expected a session id")
	}

	waitUntil(t, func() bool { return history.finishedCount() == 1 })

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if string(data) != filepath.Join(root, item.Path) {
		t.Errorf("Expected player to receive the path, got %q", data)
	}
	if code := history.finished[1]; code == nil || *code != 0 {
		t.Errorf("Expected exit code 0, got %v", code)
	}
	if history.plays[0].Program != "sh" || history.plays[0].Rule != "" {
		t.Errorf("Unexpected history entry %+v", history.plays[0])
	}
	if l.ActiveCount() != 0 {
		t.Errorf("Expected no active sessions, got %d", l.ActiveCount())
	}
}

func TestLaunchPipesReaderIntoPlayer(t *testing.T) {
	requireShell(t)
	root, item := songFile(t, "mdat.intro")
	out := filepath.Join(root, "out")

	history := newFakeHistory()
	l := New(history, true)
	defer l.Cleanup()

	path := filepath.Join(root, item.Path)
	plan := Plan{
		Item:   item.Path,
		Path:   path,
		Rule:   "uade",
		Reader: &Stage{Program: "cat", Args: []string{path}},
		Player: Stage{Program: "sh", Args: []string{"-c", `cat > "$0"`, out}},
	}

	if _, err := l.Launch(context.Background(), plan); err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	waitUntil(t, func() bool { return history.finishedCount() == 1 })

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if string(data) != "song" {
		t.Errorf("Expected the reader output on the player's stdin, got %q", data)
	}
	if history.plays[0].Program != "cat" || history.plays[0].Rule != "uade" {
		t.Errorf("Expected the reader to be recorded, got %+v", history.plays[0])
	}
}

func TestLaunchNonZeroExit(t *testing.T) {
	requireShell(t)
	root, item := songFile(t, "a.mod")

	history := newFakeHistory()
	l := New(history, false)
	defer l.Cleanup()

	plan := Plan{Item: item.Path, Path: filepath.Join(root, item.Path), Player: Stage{Program: "sh", Args: []string{"-c", "exit 3"}}}
	if _, err := l.Launch(context.Background(), plan); err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	waitUntil(t, func() bool { return history.finishedCount() == 1 })

	if code := history.finished[1]; code == nil || *code != 3 {
		t.Errorf("Expected exit code 3, got %v", code)
	}
	if history.results[1] == "" {
		t.Error("Expected error text to be recorded")
	}
}

func TestLaunchMissingFile(t *testing.T) {
	history := newFakeHistory()
	l := New(history, true)
	defer l.Cleanup()

	plan := Plan{Item: "gone.mod", Path: filepath.Join(t.TempDir(), "gone.mod"), Player: Stage{Program: "mpv"}}
	_, err := l.Launch(context.Background(), plan)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
	if len(history.plays) != 1 || history.plays[0].Error == "" {
		t.Errorf("Expected failed launch to be recorded, got %+v", history.plays)
	}
}

func TestLaunchEmptyReaderCommand(t *testing.T) {
	root, item := songFile(t, "a.mod")
	l := New(nil, true)
	defer l.Cleanup()

	plan := Plan{
		Item:   item.Path,
		Path:   filepath.Join(root, item.Path),
		Rule:   demux.UnnamedLabel,
		Reader: &Stage{},
		Player: Stage{Program: "mpv", Args: []string{StdinArg}},
	}
	if _, err := l.Launch(context.Background(), plan); !errors.Is(err, ErrNoReaderCommand) {
		t.Errorf("Expected ErrNoReaderCommand, got %v", err)
	}
}

func TestLaunchUnknownProgram(t *testing.T) {
	root, item := songFile(t, "a.mod")
	l := New(nil, true)
	defer l.Cleanup()

	plan := Plan{Item: item.Path, Path: filepath.Join(root, item.Path), Player: Stage{Program: "definitely-not-a-player-xyz"}}
	if _, err := l.Launch(context.Background(), plan); err == nil {
		t.Error("Expected error for unknown program")
	}
	if l.ActiveCount() != 0 {
		t.Errorf("Expected no sessions, got %d", l.ActiveCount())
	}
}

func TestStopAndExclusive(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	root, item := songFile(t, "a.mod")
	history := newFakeHistory()
	l := New(history, true)
	defer l.Cleanup()

	plan := Plan{Item: item.Path, Path: filepath.Join(root, item.Path), Player: Stage{Program: "sleep", Args: []string{"30"}}}

	first, err := l.Launch(context.Background(), plan)
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	second, err := l.Launch(context.Background(), plan)
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}

	active := l.Active()
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("Expected only the second session to run, got %+v", active)
	}
	if code, ok := history.finished[1]; !ok || code != nil {
		t.Errorf("Expected first session recorded as killed, got %v (ok=%v)", code, ok)
	}

	if err := l.Stop(second.ID); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := l.Stop(first.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if l.ActiveCount() != 0 {
		t.Errorf("Expected no sessions, got %d", l.ActiveCount())
	}
}

func TestExclusiveConcurrentLaunch(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	root, item := songFile(t, "a.mod")
	l := New(nil, true)
	defer l.Cleanup()

	plan := Plan{Item: item.Path, Path: filepath.Join(root, item.Path), Player: Stage{Program: "sleep", Args: []string{"30"}}}

	const launches = 8
	var wg sync.WaitGroup
	errs := make(chan error, launches)
	start := make(chan struct{})
	for i := 0; i < launches; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.Launch(context.Background(), plan); err != nil {
				errs <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Launch returned error: %v", err)
	}
	if got := l.ActiveCount(); got != 1 {
		t.Errorf("Expected exactly one running session, got %d", got)
	}
}

func TestCleanup(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	root, item := songFile(t, "a.mod")
	l := New(nil, false)

	plan := Plan{Item: item.Path, Path: filepath.Join(root, item.Path), Player: Stage{Program: "sleep", Args: []string{"30"}}}
	for i := 0; i < 2; i++ {
		if _, err := l.Launch(context.Background(), plan); err != nil {
			t.Fatalf("Launch returned error: %v", err)
		}
	}

	l.Cleanup()
	if l.ActiveCount() != 0 {
		t.Errorf("Expected cleanup to reap all sessions, got %d", l.ActiveCount())
	}
	if _, err := l.Launch(context.Background(), plan); err == nil {
		t.Error("Expected launch after cleanup to fail")
	}
}

func TestExitStatus(t *testing.T) {
	code, result := exitStatus(nil, false)
	if code == nil || *code != 0 || result != "success" {
		t.Errorf("Unexpected success status %v %s", code, result)
	}

	code, result = exitStatus(errors.New("signal: killed"), true)
	if code != nil || result != "killed" {
		t.Errorf("Unexpected killed status %v %s", code, result)
	}

	code, result = exitStatus(errors.New("boom"), false)
	if code != nil || result != "error" {
		t.Errorf("Unexpected error status %v %s", code, result)
	}
}

func TestLogWriter(t *testing.T) {
	w := newLogWriter("mpv")
	if _, err := w.Write([]byte("AV: 00:00:01\r\nExiting")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if string(w.buf) != "Exiting" {
		t.Errorf("Expected partial line kept, got %q", w.buf)
	}

	if _, err := w.Write([]byte(strings.Repeat("x", maxLogLine))); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if len(w.buf) != 0 {
		t.Errorf("Expected oversized line flushed, got %d bytes", len(w.buf))
	}
}

func TestLogWriterFlush(t *testing.T) {
	w := newLogWriter("uade123")
	if _, err := w.Write([]byte("Song end")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	w.Flush()
	if len(w.buf) != 0 {
		t.Errorf("Expected buffer emptied, got %q", w.buf)
	}
	if !loggedLine("[uade123] Song end") {
		t.Error("Expected flushed line in the log")
	}
}

func loggedLine(substr string) bool {
	for _, line := range logging.Recent(logging.DefaultRingCapacity) {
		if strings.Contains(line.Message, substr) {
			return true
		}
	}
	return false
}

func TestLaunchLogsTrailingOutput(t *testing.T) {
	requireShell(t)
	root, item := songFile(t, "song.flac")
	l := New(nil, false)
	defer l.Cleanup()

	marker := "no-newline-" + filepath.Base(root)
	plan := Plan{Item: item.Path, Path: filepath.Join(root, item.Path), Player: Stage{Program: "sh", Args: []string{"-c", "printf " + marker}}}
	if _, err := l.Launch(context.Background(), plan); err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	waitUntil(t, func() bool { return l.ActiveCount() == 0 })

	if !loggedLine("[sh] " + marker) {
		t.Error("Expected trailing output without newline in the log")
	}
}

func TestPlanStringQuotes(t *testing.T) {
	plan := Plan{
		Reader: &Stage{Program: "uade123", Args: []string{"-c", "/music/my song.mod"}},
		Player: Stage{Program: "mpv", Args: []string{"--no-video", "-"}},
	}
	want := `uade123 -c "/music/my song.mod" | mpv --no-video -`
	if got := plan.String(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
	if plan.Outcome() != "rule" {
		t.Errorf("Expected rule outcome, got %s", plan.Outcome())
	}
}
