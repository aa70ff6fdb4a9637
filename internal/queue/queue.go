// Package queue serializes user intents onto a single worker so cart state
// transitions run one at a time, in arrival order.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fairyhunter13/storefront/internal/cart"
	"github.com/fairyhunter13/storefront/internal/model"
	"github.com/fairyhunter13/storefront/internal/obs"
)

// task is an intent plus where to deliver the resulting state.
type task struct {
	intent model.Intent
	reply  chan cart.State
}

// Queue is an unbounded FIFO of intents consumed by one worker. Enqueue never
// blocks; the worker parks on ready while nothing is pending.
type Queue struct {
	mu            sync.Mutex
	pending       []task
	ready         chan struct{}
	highWatermark int
	overWatermark bool

	shuttingDown atomic.Bool
	inFlight     atomic.Int64
	enqueued     atomic.Uint64
	processed    atomic.Uint64
}

// New creates a Queue. capacity preallocates the pending list; a backlog
// above highWatermark is logged once per crossing (0 disables the warning).
func New(capacity, highWatermark int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{
		pending:       make([]task, 0, capacity),
		ready:         make(chan struct{}, 1),
		highWatermark: highWatermark,
	}
}

func (q *Queue) enqueue(t task) bool {
	if q.shuttingDown.Load() {
		return false
	}
	q.enqueued.Add(1)
	q.mu.Lock()
	q.pending = append(q.pending, t)
	n := len(q.pending)
	crossed := q.highWatermark > 0 && n > q.highWatermark && !q.overWatermark
	if crossed {
		q.overWatermark = true
	}
	q.mu.Unlock()
	if crossed {
		obs.Logger.Warn("intent_backlog_high", "backlog_size", n, "high_watermark", q.highWatermark)
	}
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// next pops the oldest pending task, waiting until one arrives or ctx is
// done. A popped task counts as in flight until markProcessed.
func (q *Queue) next(ctx context.Context) (task, bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			t := q.pending[0]
			q.pending[0] = task{}
			q.pending = q.pending[1:]
			if len(q.pending) <= q.highWatermark {
				q.overWatermark = false
			}
			q.inFlight.Add(1)
			q.mu.Unlock()
			return t, true
		}
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return task{}, false
		case <-q.ready:
		}
	}
}

func (q *Queue) markProcessed() {
	q.inFlight.Add(-1)
	q.processed.Add(1)
}

// BacklogSize returns the number of intents not yet picked up by the worker.
func (q *Queue) BacklogSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// QueueDepth returns the backlog plus the intent currently being applied.
func (q *Queue) QueueDepth() int {
	return q.BacklogSize() + int(q.inFlight.Load())
}

// Metrics returns counters and sizes for observability.
func (q *Queue) Metrics() (enq, proc uint64, backlog, depth int) {
	enq = q.enqueued.Load()
	proc = q.processed.Load()
	backlog = q.BacklogSize()
	return enq, proc, backlog, backlog + int(q.inFlight.Load())
}

// CloseIntake disallows future enqueues.
func (q *Queue) CloseIntake() { q.shuttingDown.Store(true) }

// IsShuttingDown reports if intake has been closed.
func (q *Queue) IsShuttingDown() bool { return q.shuttingDown.Load() }
