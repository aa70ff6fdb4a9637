package queue

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/storefront/internal/cart"
	"github.com/fairyhunter13/storefront/internal/model"
	"github.com/fairyhunter13/storefront/internal/obs"
	"github.com/fairyhunter13/storefront/internal/store"
)

var (
	shirt = model.Product{ID: 2, Title: "Shirt", Price: decimal.RequireFromString("22.30")}
	ring  = model.Product{ID: 5, Title: "Ring", Price: decimal.NewFromInt(168)}
)

func TestMain(m *testing.M) {
	obs.InitLogger("error")
	os.Exit(m.Run())
}

func setupManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	st := store.New()
	mgr := NewManager(New(16, 0), st)
	mgr.Start(context.Background())
	t.Cleanup(mgr.Stop)
	return mgr, st
}

func TestQueueNonBlockingEnqueue(t *testing.T) {
	q := New(1, 10)
	for i := 0; i < 1000; i++ {
		if ok := q.enqueue(task{intent: model.Intent{Kind: model.IntentToggle, SessionID: "x"}}); !ok {
			t.Fatalf("enqueue failed at %d", i)
		}
	}
	if got := q.BacklogSize(); got != 1000 {
		t.Fatalf("expected backlog 1000 without a consumer, got %d", got)
	}
}

func TestQueueNextIsFIFOAndCountsInFlight(t *testing.T) {
	q := New(4, 0)
	for i := 1; i <= 3; i++ {
		q.enqueue(task{intent: model.Intent{Kind: model.IntentToggle, Sequence: uint64(i)}})
	}
	ctx := context.Background()
	first, ok := q.next(ctx)
	if !ok || first.intent.Sequence != 1 {
		t.Fatalf("expected sequence 1 first, got %d (ok=%v)", first.intent.Sequence, ok)
	}
	if _, _, backlog, depth := q.Metrics(); backlog != 2 || depth != 3 {
		t.Fatalf("expected backlog 2 and depth 3 with one in flight, got %d/%d", backlog, depth)
	}
	q.markProcessed()
	second, _ := q.next(ctx)
	if second.intent.Sequence != 2 {
		t.Fatalf("expected sequence 2, got %d", second.intent.Sequence)
	}
	q.markProcessed()
	if enq, proc, _, depth := q.Metrics(); enq != 3 || proc != 2 || depth != 1 {
		t.Fatalf("unexpected metrics enq=%d proc=%d depth=%d", enq, proc, depth)
	}
}

func TestQueueNextWaitsForEnqueue(t *testing.T) {
	q := New(1, 0)
	got := make(chan task, 1)
	go func() {
		tk, ok := q.next(context.Background())
		if ok {
			got <- tk
		}
	}()
	time.Sleep(20 * time.Millisecond)
	q.enqueue(task{intent: model.Intent{Kind: model.IntentClose, Sequence: 7}})
	select {
	case tk := <-got:
		if tk.intent.Sequence != 7 {
			t.Fatalf("expected sequence 7, got %d", tk.intent.Sequence)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("next did not wake on enqueue")
	}
}

func TestQueueNextReturnsOnCancel(t *testing.T) {
	q := New(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := q.next(ctx); ok {
		t.Fatalf("expected no task from an empty queue with a cancelled context")
	}
}

func TestQueueShutdownIntake(t *testing.T) {
	q := New(1, 0)
	q.CloseIntake()
	if !q.IsShuttingDown() {
		t.Fatalf("expected shutting down true")
	}
	if ok := q.enqueue(task{intent: model.Intent{Kind: model.IntentToggle}}); ok {
		t.Fatalf("expected enqueue false when shutting down")
	}
}

func TestDispatchScenario(t *testing.T) {
	mgr, st := setupManager(t)
	ctx := context.Background()
	sid := "session-1"

	steps := []struct {
		in   model.Intent
		want []int
	}{
		{model.Intent{Kind: model.IntentAdd, Product: shirt}, []int{2, 1}},
		{model.Intent{Kind: model.IntentAdd, Product: shirt}, []int{2, 2}},
		{model.Intent{Kind: model.IntentAdd, Product: ring}, []int{2, 2, 5, 1}},
		{model.Intent{Kind: model.IntentRemove, ProductID: shirt.ID}, []int{2, 1, 5, 1}},
		{model.Intent{Kind: model.IntentRemove, ProductID: shirt.ID}, []int{5, 1}},
		{model.Intent{Kind: model.IntentRemove, ProductID: shirt.ID}, []int{5, 1}},
	}
	for i, s := range steps {
		s.in.SessionID = sid
		got, err := mgr.Dispatch(ctx, s.in)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		var flat []int
		for _, e := range got.Items {
			flat = append(flat, e.ID, e.Amount)
		}
		if len(flat) != len(s.want) {
			t.Fatalf("step %d: expected %v, got %v", i, s.want, flat)
		}
		for j := range flat {
			if flat[j] != s.want[j] {
				t.Fatalf("step %d: expected %v, got %v", i, s.want, flat)
			}
		}
	}
	if st.Get(sid).BadgeCount() != 1 {
		t.Fatalf("store out of sync with dispatch results")
	}
}

func TestDispatchToggleAndClose(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx := context.Background()
	s, _ := mgr.Dispatch(ctx, model.Intent{Kind: model.IntentToggle, SessionID: "d"})
	if !s.Open {
		t.Fatalf("expected open after toggle")
	}
	s, _ = mgr.Dispatch(ctx, model.Intent{Kind: model.IntentClose, SessionID: "d"})
	if s.Open {
		t.Fatalf("expected closed after close")
	}
}

func TestDispatchConcurrentAddsAreSerialized(t *testing.T) {
	mgr, st := setupManager(t)
	g, ctx := errgroup.WithContext(context.Background())
	const n = 50
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := mgr.Dispatch(ctx, model.Intent{Kind: model.IntentAdd, SessionID: "busy", Product: ring})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := cart.Amount(st.Get("busy").Items, ring.ID); got != n {
		t.Fatalf("expected %d, got %d", n, got)
	}
	enq, proc, _, _ := mgr.QueueMetrics()
	if enq != n || proc != n {
		t.Fatalf("expected %d enqueued and processed, got %d/%d", n, enq, proc)
	}
}

func TestDispatchAfterCloseIntake(t *testing.T) {
	mgr, _ := setupManager(t)
	mgr.CloseIntake()
	if !mgr.IsShuttingDown() {
		t.Fatalf("expected shutting down")
	}
	_, err := mgr.Dispatch(context.Background(), model.Intent{Kind: model.IntentToggle, SessionID: "z"})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestDispatchHonorsContext(t *testing.T) {
	mgr := NewManager(New(1, 0), store.New())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := mgr.Dispatch(ctx, model.Intent{Kind: model.IntentToggle, SessionID: "never"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded without a running worker, got %v", err)
	}
}

func TestManagerDrain(t *testing.T) {
	mgr, _ := setupManager(t)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		if _, err := mgr.Dispatch(ctx, model.Intent{Kind: model.IntentAdd, SessionID: "drain", Product: shirt}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelDrain()
	if ok := mgr.DrainUntil(ctxDrain); !ok {
		t.Fatalf("expected drain true")
	}
}

func TestNextSequenceMonotonic(t *testing.T) {
	m := NewManager(New(1, 0), store.New())
	prev := uint64(0)
	for i := 0; i < 10; i++ {
		n := m.NextSequence()
		if n <= prev {
			t.Fatalf("sequence went backwards: %d after %d", n, prev)
		}
		prev = n
	}
}
