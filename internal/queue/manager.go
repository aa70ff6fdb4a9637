package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/storefront/internal/cart"
	"github.com/fairyhunter13/storefront/internal/model"
	"github.com/fairyhunter13/storefront/internal/obs"
	"github.com/fairyhunter13/storefront/internal/store"
)

// ErrClosed is returned by Dispatch once intake has been closed.
var ErrClosed = errors.New("intent queue closed")

// Manager owns the queue and the single worker that applies intents to the
// session store.
type Manager struct {
	q      *Queue
	st     *store.Store
	seq    atomic.Uint64
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	stopped chan struct{}
}

// NewManager constructs a Manager draining q into st.
func NewManager(q *Queue, st *store.Store) *Manager {
	return &Manager{q: q, st: st}
}

// Start begins processing in the background. Starting twice is a no-op.
func (m *Manager) Start(parent context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.ctx, m.cancel = context.WithCancel(parent)
	m.stopped = make(chan struct{})
	go m.worker(m.ctx, m.stopped)
	obs.Logger.Info("intent_worker_started")
}

// Stop cancels the worker and waits for the worker to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.cancel()
	stopped := m.stopped
	m.mu.Unlock()
	<-stopped
}

// worker applies intents one by one.
func (m *Manager) worker(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)
	for {
		t, ok := m.q.next(ctx)
		if !ok {
			return
		}
		next := m.apply(ctx, t.intent)
		m.q.markProcessed()
		if t.reply != nil {
			t.reply <- next
		}
	}
}

func (m *Manager) apply(ctx context.Context, in model.Intent) cart.State {
	_, span := obs.Tracer("storefront/queue").Start(ctx, "cart.intent")
	defer span.End()
	span.SetAttributes(
		attribute.String("intent.kind", string(in.Kind)),
		attribute.Int64("intent.sequence", int64(in.Sequence)),
	)

	next := m.st.Update(in.SessionID, func(s cart.State) cart.State {
		switch in.Kind {
		case model.IntentAdd:
			return s.AddToCart(in.Product)
		case model.IntentRemove:
			return s.RemoveFromCart(in.ProductID)
		case model.IntentToggle:
			return s.ToggleOpen()
		case model.IntentClose:
			return s.CloseDrawer()
		}
		obs.Logger.Warn("intent_unknown", "kind", in.Kind, "sequence", in.Sequence)
		return s
	})
	obs.Logger.Debug("intent_applied",
		"kind", in.Kind,
		"sequence", in.Sequence,
		"badge", next.BadgeCount(),
	)
	return next
}

// Dispatch stamps the intent with a sequence number, queues it, and waits
// until the worker has applied it. The returned state is the session's state
// right after this intent.
func (m *Manager) Dispatch(ctx context.Context, in model.Intent) (cart.State, error) {
	in.Sequence = m.NextSequence()
	reply := make(chan cart.State, 1)
	if !m.q.enqueue(task{intent: in, reply: reply}) {
		return cart.State{}, ErrClosed
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return cart.State{}, ctx.Err()
	}
}

// BacklogSize returns pending items in the queue.
func (m *Manager) BacklogSize() int { return m.q.BacklogSize() }

// QueueDepth returns the backlog plus the intent being applied.
func (m *Manager) QueueDepth() int { return m.q.QueueDepth() }

// NextSequence returns the next dispatch sequence number, starting at 1.
func (m *Manager) NextSequence() uint64 { return m.seq.Add(1) }

// IsShuttingDown reports whether new intents are rejected.
func (m *Manager) IsShuttingDown() bool { return m.q.IsShuttingDown() }

// CloseIntake disallows future intents.
func (m *Manager) CloseIntake() { m.q.CloseIntake() }

// QueueMetrics exposes the underlying queue metrics.
func (m *Manager) QueueMetrics() (enq, proc uint64, backlog, depth int) {
	return m.q.Metrics()
}

// DrainUntil blocks until the queue is fully drained or context is done.
func (m *Manager) DrainUntil(ctx context.Context) bool {
	for {
		enq, proc, backlog, depth := m.q.Metrics()
		if backlog == 0 && depth == 0 && enq == proc {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}
}
