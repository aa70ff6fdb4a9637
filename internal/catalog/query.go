package catalog

import (
	"context"
	"sync"

	"github.com/fairyhunter13/storefront/internal/model"
	"github.com/fairyhunter13/storefront/internal/obs"
)

// ProductsKey is the cache key the product list is memoized under.
const ProductsKey = "products"

// Status is the observable state of the catalog load.
type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "loading"
	}
}

// Snapshot is what the view sees of the catalog at one moment.
type Snapshot struct {
	Status   Status
	Products []model.Product
	Err      error
}

// FetchFunc loads the product list.
type FetchFunc func(context.Context) ([]model.Product, error)

// Query runs the product fetch through the cache once and publishes its
// outcome as a Snapshot.
type Query struct {
	cache *Cache[[]model.Product]
	key   string
	fetch FetchFunc

	once sync.Once
	done chan struct{}

	mu   sync.RWMutex
	snap Snapshot
	byID map[int]model.Product
}

// NewQuery binds fetch to key in cache.
func NewQuery(cache *Cache[[]model.Product], key string, fetch FetchFunc) *Query {
	return &Query{cache: cache, key: key, fetch: fetch, done: make(chan struct{})}
}

// Start launches the fetch in the background. Calls after the first do
// nothing.
func (q *Query) Start(ctx context.Context) {
	q.once.Do(func() {
		go q.run(ctx)
	})
}

func (q *Query) run(ctx context.Context) {
	defer close(q.done)
	products, err := q.cache.Do(ctx, q.key, q.fetch)

	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		q.snap = Snapshot{Status: StatusError, Err: err}
		obs.Logger.Error("catalog_fetch_failed", "key", q.key, "error", err)
		return
	}
	q.byID = make(map[int]model.Product, len(products))
	for _, p := range products {
		q.byID[p.ID] = p
	}
	q.snap = Snapshot{Status: StatusSuccess, Products: products}
	obs.Logger.Info("catalog_loaded", "key", q.key, "products", len(products))
}

// Snapshot returns the current state of the load.
func (q *Query) Snapshot() Snapshot {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.snap
}

// Lookup finds a product by id once the catalog has loaded.
func (q *Query) Lookup(id int) (model.Product, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	p, ok := q.byID[id]
	return p, ok
}

// Done is closed once the fetch has resolved either way.
func (q *Query) Done() <-chan struct{} { return q.done }
