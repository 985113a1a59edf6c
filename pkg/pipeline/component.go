package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/HasinZaman/pipelined-server/pkg/logging"
	"github.com/HasinZaman/pipelined-server/pkg/queue"
)

// Worker is the shape of a stage's work-item loop: given its input queue, it
// runs until the process wants it to stop, busy-polling the queue per the
// concurrency model. A worker function is expected to loop forever; the
// only way it stops is by panicking, which Component contains.
type Worker func(input *queue.Queue)

// Component is a stage's runtime state: an owned handle to its input queue
// and a handle to its worker goroutine's health, following the data model's
// "input queue + worker thread handle" description. A component is healthy
// when its worker has not terminated.
type Component struct {
	input  *queue.Queue
	worker Worker
	logger *logging.Logger

	mu      sync.Mutex
	healthy atomic.Bool
}

// NewComponent creates a component over the given input queue and
// immediately spawns its worker goroutine.
func NewComponent(input *queue.Queue, worker Worker, logger *logging.Logger) *Component {
	c := &Component{input: input, worker: worker, logger: logger}
	c.spawn()
	return c
}

// Input returns the component's input queue.
func (c *Component) Input() *queue.Queue {
	return c.input
}

// Healthy reports whether the component's worker goroutine is still
// running.
func (c *Component) Healthy() bool {
	return c.healthy.Load()
}

// spawn starts (or restarts) the worker goroutine against the component's
// existing input queue, containing any panic from the worker function so
// that a single stage's failure never brings down the process.
func (c *Component) spawn() {
	c.healthy.Store(true)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Errorf("stage worker panicked: %v", r)
			}
			c.healthy.Store(false)
		}()
		c.worker(c.input)
	}()
}

// Respawn replaces the component's worker goroutine in place if it is
// currently unhealthy, reusing the existing input queue so that pending
// work is preserved. It is a no-op if the worker is already healthy
// (guards against racing with the worker's own self-recovery).
func (c *Component) Respawn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Healthy() {
		return
	}
	c.spawn()
}
