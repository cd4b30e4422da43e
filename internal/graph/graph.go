package graph

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gopxl/beep"
)

// Graph is the render context shared by every node. It owns the sample clock,
// the lock that guards node mutation and the timeline of deferred tasks.
//
// Node methods (Param, GainStage, Voice, Bus) do not lock on their own: call
// them from inside Update, or from a task scheduled on the graph.
type Graph struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	frames int64
	dest   beep.Streamer
	tasks  []*Task
}

// New creates a graph rendering at the given sample rate
func New(rate beep.SampleRate) *Graph {
	slog.Debug("creating audio graph", "sample_rate", int(rate))
	return &Graph{rate: rate}
}

// SampleRate returns the rate the graph renders at
func (g *Graph) SampleRate() beep.SampleRate {
	return g.rate
}

// Frames converts a duration to a frame count at the graph's sample rate
func (g *Graph) Frames(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(g.rate.N(d))
}

// Update runs fn with the graph locked. now is the frame the next render starts at.
func (g *Graph) Update(fn func(now int64)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.frames)
}

// Now returns the position of the sample clock
func (g *Graph) Now() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rate.D(int(g.frames))
}

// SetDestination sets the streamer rendered to the output, typically the master bus.
// Must be called from inside Update.
func (g *Graph) SetDestination(s beep.Streamer) {
	g.dest = s
}

// Render fills samples with the next block of output, advances the clock and
// fires every task whose deadline has been reached.
func (g *Graph) Render(samples [][2]float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	if g.dest != nil {
		n, _ = g.dest.Stream(samples)
	}
	silence(samples[n:])

	g.frames += int64(len(samples))
	g.runDue()
}

// Reset drops the destination and every pending task. Must be called from inside Update.
func (g *Graph) Reset() {
	for _, t := range g.tasks {
		t.cancelled = true
	}
	slog.Debug("audio graph reset", "dropped_tasks", len(g.tasks))
	g.tasks = nil
	g.dest = nil
}

// Pending returns the number of scheduled tasks that have not fired yet.
// Must be called from inside Update.
func (g *Graph) Pending() int {
	return len(g.tasks)
}

// Task is a deferred graph mutation bound to a frame on the sample clock
type Task struct {
	g         *Graph
	at        int64
	fn        func()
	cancelled bool
	done      bool
}

// Schedule registers fn to run, with the graph locked, once the clock reaches
// frame at. fn must not call Update. Must be called from inside Update.
func (g *Graph) Schedule(at int64, fn func()) *Task {
	t := &Task{g: g, at: at, fn: fn}
	i := sort.Search(len(g.tasks), func(i int) bool { return g.tasks[i].at > at })
	g.tasks = append(g.tasks, nil)
	copy(g.tasks[i+1:], g.tasks[i:])
	g.tasks[i] = t
	return t
}

// Cancel removes a pending task from the timeline. It reports whether the
// task was still pending. Must be called from inside Update.
func (t *Task) Cancel() bool {
	if t == nil || t.done || t.cancelled {
		return false
	}
	t.cancelled = true
	t.fn = nil
	if t.g != nil {
		t.g.remove(t)
	}
	return true
}

func (g *Graph) remove(t *Task) {
	for i, other := range g.tasks {
		if other == t {
			copy(g.tasks[i:], g.tasks[i+1:])
			g.tasks[len(g.tasks)-1] = nil
			g.tasks = g.tasks[:len(g.tasks)-1]
			return
		}
	}
}

// Done reports whether the task has run
func (t *Task) Done() bool {
	return t != nil && t.done
}

func (g *Graph) runDue() {
	for len(g.tasks) > 0 && g.tasks[0].at <= g.frames {
		t := g.tasks[0]
		g.tasks[0] = nil
		g.tasks = g.tasks[1:]
		if t.cancelled {
			continue
		}
		t.done = true
		t.fn()
	}
}

func silence(samples [][2]float64) {
	for i := range samples {
		samples[i] = [2]float64{}
	}
}
