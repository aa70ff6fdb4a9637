package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fairyhunter13/storefront/internal/catalog"
	"github.com/fairyhunter13/storefront/internal/config"
	httpapi "github.com/fairyhunter13/storefront/internal/http"
	"github.com/fairyhunter13/storefront/internal/model"
	"github.com/fairyhunter13/storefront/internal/obs"
	"github.com/fairyhunter13/storefront/internal/queue"
	"github.com/fairyhunter13/storefront/internal/store"
	"github.com/fairyhunter13/storefront/internal/view"
)

const upstreamCatalog = `[
  {"id":1,"title":"Fjallraven Backpack","price":109.95,"description":"Your perfect pack","category":"men's clothing","image":"https://img.example/1.jpg","rating":{"rate":3.9,"count":120}},
  {"id":5,"title":"Dragon Bracelet","price":695,"description":"From our Legends Collection","category":"jewelery","image":"https://img.example/5.jpg","rating":{"rate":4.6,"count":400}}
]`

func TestIntegration_BrowseAddRemove(t *testing.T) {
	var upstreamHits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, upstreamCatalog)
	}))
	defer upstream.Close()

	cfg := config.Load()
	obs.InitLogger("error")
	st := store.New()
	mgr := queue.NewManager(queue.New(cfg.QueueBuffer, cfg.QueueHighWatermark), st)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.Start(ctx)
	defer mgr.Stop()

	products := catalog.NewQuery(catalog.NewCache[[]model.Product](), catalog.ProductsKey,
		catalog.NewFetcher(upstream.Client(), upstream.URL).FetchProducts)
	products.Start(ctx)
	select {
	case <-products.Done():
	case <-time.After(3 * time.Second):
		t.Fatalf("catalog fetch did not resolve")
	}

	renderer, err := view.New(cfg.CurrencySymbol)
	if err != nil {
		t.Fatal(err)
	}
	app := httpapi.NewApp(cfg, st, mgr, products, renderer)
	srv := httptest.NewServer(httpapi.NewRouter(app))
	defer srv.Close()

	jar, _ := cookiejar.New(nil)
	client := &http.Client{Jar: jar}

	get := func(path string) string {
		t.Helper()
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
		return string(b)
	}
	post := func(path string) {
		t.Helper()
		resp, err := client.Post(srv.URL+path, "application/x-www-form-urlencoded", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		// the client follows the 303 back to the page
		if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/" {
			t.Fatalf("POST %s: expected to land on / with 200, got %d at %s", path, resp.StatusCode, resp.Request.URL.Path)
		}
	}

	page := get("/")
	if !strings.Contains(page, "Fjallraven Backpack") || !strings.Contains(page, "₹695") {
		t.Fatalf("expected product grid on first visit")
	}

	post("/cart/5/add")
	post("/cart/5/add")
	post("/cart/1/add")
	post("/cart/5/remove")
	post("/cart/toggle")

	page = get("/")
	for _, want := range []string{"Your Shopping Cart", "Total: ₹695.00", "Total: ₹109.95", "Total: ₹804.95", `<span class="badge">2</span>`} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected %q in page", want)
		}
	}

	var c struct {
		Items []struct {
			ID     int `json:"id"`
			Amount int `json:"amount"`
		} `json:"items"`
		TotalCount int  `json:"total_count"`
		Open       bool `json:"open"`
	}
	if err := json.Unmarshal([]byte(get("/api/cart")), &c); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(c.Items) != 2 || c.Items[0].ID != 5 || c.Items[1].ID != 1 || c.TotalCount != 2 || !c.Open {
		t.Fatalf("unexpected cart: %+v", c)
	}

	if n := upstreamHits.Load(); n != 1 {
		t.Fatalf("expected exactly one upstream fetch, got %d", n)
	}
}
