package layout

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/influencegraph/pkg/graph"
	"github.com/matzehuels/influencegraph/pkg/observability"
)

// Controller delays.
const (
	DefaultPreDelay   = 100 * time.Millisecond
	DefaultStartDelay = 100 * time.Millisecond
)

// Event is a layout action performed by a Controller.
type Event string

const (
	EventStop     Event = "stop"     // force worker stopped
	EventCircular Event = "circular" // circular positions assigned
	EventStart    Event = "start"    // force worker started
)

// Controller switches the layout of a displayed graph.
type Controller struct {
	settings      Settings
	preDelay      time.Duration
	startDelay    time.Duration
	workerOptions []WorkerOption
	onEvent       func(Event)
	logger        *log.Logger

	mu     sync.Mutex
	g      *graph.Graph
	mode   Mode
	worker *Worker
	timers []*time.Timer
	gen    uint64 // bumped on teardown; stale timer callbacks compare against it
	closed bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithSettings overrides the ForceAtlas2 settings.
func WithSettings(s Settings) ControllerOption {
	return func(c *Controller) { c.settings = s }
}

// WithDelays overrides the pre-delay and the worker start delay.
func WithDelays(pre, start time.Duration) ControllerOption {
	return func(c *Controller) { c.preDelay, c.startDelay = pre, start }
}

// WithWorkerOptions passes options to every worker the controller creates.
func WithWorkerOptions(opts ...WorkerOption) ControllerOption {
	return func(c *Controller) { c.workerOptions = append(c.workerOptions, opts...) }
}

// WithEventHook registers a callback receiving every layout action in order.
// It is called with the controller's lock held and must not call back into
// the controller.
func WithEventHook(fn func(Event)) ControllerOption {
	return func(c *Controller) { c.onEvent = fn }
}

// WithControllerLogger sets the logger. The default discards output.
func WithControllerLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates an idle controller for g. Call SetMode to lay it out.
func NewController(g *graph.Graph, opts ...ControllerOption) *Controller {
	c := &Controller{
		g:          g,
		settings:   DefaultSettings(),
		preDelay:   DefaultPreDelay,
		startDelay: DefaultStartDelay,
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the last requested mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Graph returns the graph currently laid out.
func (c *Controller) Graph() *graph.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.g
}

// Running reports whether the force worker is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.worker != nil && c.worker.Running()
}

// SetMode tears down any pending or running layout and schedules m.
func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.teardownLocked()
	c.mode = m
	c.scheduleLocked()
}

// SetGraph replaces the graph, keeping the current mode.
func (c *Controller) SetGraph(g *graph.Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.teardownLocked()
	c.g = g
	c.worker = nil
	if c.mode != "" {
		c.scheduleLocked()
	}
}

// Close cancels pending timers and stops the worker. The controller ignores
// all further calls.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.closed = true
}

func (c *Controller) teardownLocked() {
	c.gen++
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	if c.worker != nil && c.worker.Running() {
		c.worker.Stop()
		c.emit(EventStop)
	}
}

func (c *Controller) scheduleLocked() {
	gen := c.gen
	mode := c.mode
	c.afterLocked(c.preDelay, gen, func() {
		switch mode {
		case ModeCircular:
			c.stopWorkerLocked()
			c.assignCircularLocked()
		case ModeForceAtlas:
			c.assignCircularLocked()
			c.afterLocked(c.startDelay, gen, c.startWorkerLocked)
		}
	})
}

// afterLocked runs fn with the lock held after d, unless a teardown happened
// in between.
func (c *Controller) afterLocked(d time.Duration, gen uint64, fn func()) {
	t := time.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.gen != gen {
			return
		}
		fn()
	})
	c.timers = append(c.timers, t)
}

func (c *Controller) stopWorkerLocked() {
	if c.worker != nil {
		c.worker.Stop()
	}
	c.emit(EventStop)
}

func (c *Controller) assignCircularLocked() {
	ctx := context.Background()
	hooks := observability.Graph()
	hooks.OnLayoutStart(ctx, string(ModeCircular), c.g.NodeCount())
	start := time.Now()

	Circular(c.g)

	hooks.OnLayoutComplete(ctx, string(ModeCircular), time.Since(start), nil)
	c.logger.Debug("assigned circular layout", "nodes", c.g.NodeCount())
	c.emit(EventCircular)
}

func (c *Controller) startWorkerLocked() {
	if c.worker == nil {
		c.worker = NewWorker(c.g, c.settings, c.workerOptions...)
	}
	c.worker.Start()
	c.logger.Debug("started force layout", "nodes", c.g.NodeCount())
	c.emit(EventStart)
}

func (c *Controller) emit(e Event) {
	if c.onEvent != nil {
		c.onEvent(e)
	}
}
