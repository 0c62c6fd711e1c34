package logging

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingCapacity is the number of lines kept by the process-wide ring.
const DefaultRingCapacity = 500

// Line is a log message captured by a Ring.
type Line struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Ring is an append-only buffer of the most recent log lines. When full,
// the oldest line is overwritten. It is safe for concurrent use.
type Ring struct {
	mu    sync.Mutex
	lines []Line
	next  int
	full  bool
	total uint64
}

// NewRing creates a ring holding up to capacity lines. A capacity below one
// is raised to one.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{lines: make([]Line, capacity)}
}

// Add appends a line.
func (r *Ring) Add(msg string) {
	r.add(Line{Time: time.Now(), Message: msg})
}

func (r *Ring) add(line Line) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines[r.next] = line
	r.next++
	r.total++
	if r.next == len(r.lines) {
		r.next = 0
		r.full = true
	}
}

// Recent returns up to n lines, oldest first. n <= 0 returns everything
// retained.
func (r *Ring) Recent(n int) []Line {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.lines)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Line, 0, n)
	start := r.next - n
	if start < 0 {
		start += len(r.lines)
	}
	for i := 0; i < n; i++ {
		out = append(out, r.lines[(start+i)%len(r.lines)])
	}
	return out
}

// Total returns the number of lines ever added, including overwritten ones.
func (r *Ring) Total() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Capacity returns the maximum number of retained lines.
func (r *Ring) Capacity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

var defaultRing atomic.Pointer[Ring]

func init() {
	defaultRing.Store(NewRing(DefaultRingCapacity))
}

// Recent returns up to n of the most recent lines logged by this process.
func Recent(n int) []Line {
	return defaultRing.Load().Recent(n)
}

// RecentTotal returns the number of lines logged since startup.
func RecentTotal() uint64 {
	return defaultRing.Load().Total()
}

// SetRingCapacity resizes the process-wide ring, keeping the most recent
// lines that fit.
func SetRingCapacity(capacity int) {
	old := defaultRing.Load()
	r := NewRing(capacity)
	kept := old.Recent(r.Capacity())
	for _, line := range kept {
		r.add(line)
	}
	r.total = old.Total()
	defaultRing.Store(r)
}
