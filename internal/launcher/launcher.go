package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"media-router/internal/database"
	"media-router/internal/filesystem"
	"media-router/internal/logging"
	"media-router/internal/metrics"
)

// ErrNoReaderCommand is returned when the matching rule has an empty
// reader command.
var ErrNoReaderCommand = errors.New("demuxer has no reader command")

// ErrSessionNotFound is returned by Stop for an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// History records launches. *database.Database implements it.
type History interface {
	RecordPlay(ctx context.Context, p database.Play) (int64, error)
	FinishPlay(ctx context.Context, id int64, finishedAt time.Time, exitCode *int, errMsg string) error
}

// SessionInfo describes a running plan.
type SessionInfo struct {
	ID        int64     `json:"id"`
	Plan      Plan      `json:"plan"`
	StartedAt time.Time `json:"startedAt"`
}

type session struct {
	info    SessionInfo
	reader  *exec.Cmd
	player  *exec.Cmd
	logs    []*logWriter
	killed  bool
	done    chan struct{}
	history int64
}

// Launcher starts plans and tracks the resulting processes.
type Launcher struct {
	history   History
	exclusive bool
	retry     filesystem.RetryConfig

	ctx    context.Context
	cancel context.CancelFunc

	// launchMu serializes exclusive launches from StopAll until the new
	// session is registered.
	launchMu sync.Mutex

	processMu sync.Mutex
	processes map[int64]*session
	nextID    int64
}

// New creates a launcher. history may be nil. When exclusive is set,
// starting a plan stops every running one first, so only one item plays
// at a time.
func New(history History, exclusive bool) *Launcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Launcher{
		history:   history,
		exclusive: exclusive,
		retry:     filesystem.DefaultRetryConfig(),
		ctx:       ctx,
		cancel:    cancel,
		processes: make(map[int64]*session),
	}
}

// Launch starts plan. The song file must exist. The returned session runs
// until the player exits, Stop is called or the launcher is cleaned up.
func (l *Launcher) Launch(ctx context.Context, plan Plan) (SessionInfo, error) {
	if _, err := filesystem.StatWithRetry(plan.Path, l.retry); err != nil {
		l.recordFailure(ctx, plan, err)
		return SessionInfo{}, fmt.Errorf("cannot play %s: %w", plan.Item, err)
	}
	if plan.Reader != nil && plan.Reader.Program == "" {
		err := fmt.Errorf("%w: %s", ErrNoReaderCommand, plan.Rule)
		l.recordFailure(ctx, plan, err)
		return SessionInfo{}, err
	}

	if l.exclusive {
		l.launchMu.Lock()
		defer l.launchMu.Unlock()
		l.StopAll()
	}

	s := &session{
		info: SessionInfo{Plan: plan, StartedAt: time.Now()},
		done: make(chan struct{}),
	}

	if err := l.start(s); err != nil {
		l.recordFailure(ctx, plan, err)
		return SessionInfo{}, err
	}

	l.processMu.Lock()
	l.nextID++
	s.info.ID = l.nextID
	l.processes[s.info.ID] = s
	active := len(l.processes)
	l.processMu.Unlock()

	metrics.LaunchesTotal.WithLabelValues(plan.Outcome(), "started").Inc()
	metrics.ActivePlayers.Set(float64(active))
	logging.Info("Playing %s: %s", plan.Item, plan.String())

	s.history = l.record(ctx, plan, s.info.StartedAt, "")

	go l.wait(s)
	return s.info, nil
}

// start runs the processes of s. The reader's stdout is connected to the
// player's stdin through an OS pipe.
func (l *Launcher) start(s *session) error {
	plan := s.info.Plan

	s.player = exec.CommandContext(l.ctx, plan.Player.Program, plan.Player.Args...)
	s.player.Stdout = s.logWriter(plan.Player.Program)
	s.player.Stderr = s.logWriter(plan.Player.Program)

	if plan.Reader == nil {
		if err := s.player.Start(); err != nil {
			return fmt.Errorf("failed to start %s: %w", plan.Player.Program, err)
		}
		return nil
	}

	s.reader = exec.CommandContext(l.ctx, plan.Reader.Program, plan.Reader.Args...)
	s.reader.Stderr = s.logWriter(plan.Reader.Program)

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create pipe: %w", err)
	}
	s.reader.Stdout = pw
	s.player.Stdin = pr

	if err := s.reader.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return fmt.Errorf("failed to start %s: %w", plan.Reader.Program, err)
	}
	if err := s.player.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		_ = s.reader.Process.Kill()
		_ = s.reader.Wait()
		return fmt.Errorf("failed to start %s: %w", plan.Player.Program, err)
	}

	// The children hold their own copies.
	_ = pr.Close()
	_ = pw.Close()
	return nil
}

// wait reaps the processes of s and records the outcome.
func (l *Launcher) wait(s *session) {
	defer close(s.done)

	playerErr := s.player.Wait()
	if s.reader != nil {
		// A reader blocked on a full pipe gets EPIPE once the player is gone,
		// but one that ignores it is killed.
		readerDone := make(chan error, 1)
		go func() { readerDone <- s.reader.Wait() }()
		select {
		case <-readerDone:
		case <-time.After(2 * time.Second):
			_ = s.reader.Process.Kill()
			<-readerDone
		}
	}
	for _, w := range s.logs {
		w.Flush()
	}

	l.processMu.Lock()
	killed := s.killed
	delete(l.processes, s.info.ID)
	active := len(l.processes)
	l.processMu.Unlock()
	metrics.ActivePlayers.Set(float64(active))

	exitCode, result := exitStatus(playerErr, killed || l.ctx.Err() != nil)
	metrics.LaunchExitsTotal.WithLabelValues(result).Inc()

	errMsg := ""
	if playerErr != nil {
		errMsg = playerErr.Error()
	}
	switch result {
	case "success":
		logging.Info("Finished %s", s.info.Plan.Item)
	case "killed":
		logging.Debug("Stopped %s", s.info.Plan.Item)
	default:
		logging.Warn("Player exited with error for %s: %v", s.info.Plan.Item, playerErr)
	}

	if l.history != nil && s.history != 0 {
		if err := l.history.FinishPlay(context.Background(), s.history, time.Now(), exitCode, errMsg); err != nil {
			logging.Warn("failed to record play result: %v", err)
		}
	}
}

// exitStatus classifies the player's exit.
func exitStatus(err error, killed bool) (*int, string) {
	if err == nil {
		code := 0
		return &code, "success"
	}
	if killed {
		return nil, "killed"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		code := exitErr.ExitCode()
		return &code, "error"
	}
	return nil, "error"
}

func (l *Launcher) record(ctx context.Context, plan Plan, startedAt time.Time, errMsg string) int64 {
	if l.history == nil {
		return 0
	}
	program := plan.Player.Program
	args := plan.Player.Args
	if plan.Reader != nil {
		program = plan.Reader.Program
		args = plan.Reader.Args
	}
	id, err := l.history.RecordPlay(ctx, database.Play{
		Path:      plan.Item,
		Rule:      plan.Rule,
		Program:   program,
		Args:      args,
		StartedAt: startedAt,
		Error:     errMsg,
	})
	if err != nil {
		logging.Warn("failed to record play of %s: %v", plan.Item, err)
		return 0
	}
	return id
}

func (l *Launcher) recordFailure(ctx context.Context, plan Plan, err error) {
	metrics.LaunchesTotal.WithLabelValues(plan.Outcome(), "failed").Inc()
	logging.Error("Failed to play %s: %v", plan.Item, err)
	l.record(ctx, plan, time.Now(), err.Error())
}

// Active returns the running sessions ordered by id.
func (l *Launcher) Active() []SessionInfo {
	l.processMu.Lock()
	defer l.processMu.Unlock()

	out := make([]SessionInfo, 0, len(l.processes))
	for _, s := range l.processes {
		out = append(out, s.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveCount returns the number of running sessions.
func (l *Launcher) ActiveCount() int {
	l.processMu.Lock()
	defer l.processMu.Unlock()
	return len(l.processes)
}

// Stop kills the processes of a session and waits for them to exit.
func (l *Launcher) Stop(id int64) error {
	l.processMu.Lock()
	s, ok := l.processes[id]
	if ok {
		s.killed = true
	}
	l.processMu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	kill(s)
	<-s.done
	return nil
}

// StopAll stops every running session.
func (l *Launcher) StopAll() {
	for _, info := range l.Active() {
		if err := l.Stop(info.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			logging.Warn("failed to stop session %d: %v", info.ID, err)
		}
	}
}

// Cleanup kills all processes. The launcher cannot start new plans
// afterwards.
func (l *Launcher) Cleanup() {
	l.processMu.Lock()
	sessions := make([]*session, 0, len(l.processes))
	for _, s := range l.processes {
		s.killed = true
		sessions = append(sessions, s)
	}
	l.processMu.Unlock()

	l.cancel()
	for _, s := range sessions {
		logging.Info("Killing player for: %s", s.info.Plan.Item)
		kill(s)
		<-s.done
	}
}

func (s *session) logWriter(program string) *logWriter {
	w := newLogWriter(program)
	s.logs = append(s.logs, w)
	return w
}

func kill(s *session) {
	for _, cmd := range []*exec.Cmd{s.player, s.reader} {
		if cmd == nil || cmd.Process == nil {
			continue
		}
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			logging.Warn("failed to kill %s: %v", cmd.Path, err)
		}
	}
}

// maxLogLine bounds the partial line kept by a logWriter.
const maxLogLine = 4096

// logWriter forwards process output to the log, one line at a time.
type logWriter struct {
	program string
	mu      sync.Mutex
	buf     []byte
}

func newLogWriter(program string) *logWriter {
	return &logWriter{program: program}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) >= maxLogLine {
		w.emit(w.buf)
		w.buf = nil
	}
	return len(p), nil
}

// Flush logs a trailing line that has no newline.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emit(w.buf)
	w.buf = nil
}

func (w *logWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	logging.Info("[%s] %s", w.program, line)
}
