package layout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/influencegraph/pkg/graph"
)

// DefaultTickInterval paces the background worker.
const DefaultTickInterval = 16 * time.Millisecond

// Worker runs ForceAtlas2 continuously in a background goroutine, publishing
// positions to the graph after every tick.
type Worker struct {
	g        *graph.Graph
	settings Settings
	interval time.Duration
	steps    int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	iterations atomic.Int64
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithTickInterval sets the delay between ticks.
func WithTickInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithStepsPerTick sets how many iterations run per tick.
func WithStepsPerTick(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.steps = n
		}
	}
}

// NewWorker creates a stopped worker for g.
func NewWorker(g *graph.Graph, s Settings, opts ...WorkerOption) *Worker {
	w := &Worker{g: g, settings: s, interval: DefaultTickInterval, steps: 1}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the simulation from the graph's current positions.
// Starting a running worker has no effect.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.loop(ctx, NewForceAtlas2(w.g, w.settings), w.done)
}

func (w *Worker) loop(ctx context.Context, fa *ForceAtlas2, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for range w.steps {
			fa.Step()
		}
		w.iterations.Add(int64(w.steps))
		if ctx.Err() != nil {
			return
		}
		w.g.SetPositions(fa.Positions())
	}
}

// Stop halts the simulation and waits for the goroutine to exit.
// Stopping a stopped worker has no effect.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the simulation goroutine is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// Iterations returns the number of iterations run since creation.
func (w *Worker) Iterations() int64 { return w.iterations.Load() }
