package watcher

import (
	"sort"
	"sync"
	"time"
)

// DefaultInterval is the quiet period used when none is configured. Copying a
// large scan into the library produces many write events, so it is generous.
const DefaultInterval = 2 * time.Second

// Change is one collapsed file system change inside a batch.
type Change struct {
	Path string
	Op   EventOp
}

// EventOp represents the type of file system operation.
type EventOp int

const (
	OpCreate EventOp = iota
	OpWrite
	OpRemove
	OpRename
)

func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	}
	return "unknown"
}

// Removed reports whether the change took the path away.
func (op EventOp) Removed() bool {
	return op == OpRemove || op == OpRename
}

// Debouncer collects changes and emits them as one batch, sorted by path, after
// a quiet period. Changes to the same path within a window collapse into the latest.
type Debouncer struct {
	interval time.Duration
	pending  map[string]EventOp
	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	output   chan []Change
}

// NewDebouncer creates a debouncer with the specified quiet interval.
// A non-positive interval falls back to DefaultInterval.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Debouncer{
		interval: interval,
		pending:  make(map[string]EventOp),
		output:   make(chan []Change, 16),
	}
}

// Output returns the channel that receives batches.
func (d *Debouncer) Output() <-chan []Change {
	return d.output
}

// Add records a change and restarts the quiet period.
func (d *Debouncer) Add(path string, op EventOp) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending[path] = op
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop drops pending changes and closes the output channel.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = nil
	close(d.output)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]Change, 0, len(d.pending))
	for path, op := range d.pending {
		batch = append(batch, Change{Path: path, Op: op})
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })

	d.pending = make(map[string]EventOp)
	d.output <- batch
}
