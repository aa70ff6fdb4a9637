package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/fairyhunter13/storefront/internal/cart"
	"github.com/fairyhunter13/storefront/internal/catalog"
	"github.com/fairyhunter13/storefront/internal/config"
	httpopenapi "github.com/fairyhunter13/storefront/internal/http/openapi"
	"github.com/fairyhunter13/storefront/internal/model"
	"github.com/fairyhunter13/storefront/internal/obs"
	"github.com/fairyhunter13/storefront/internal/queue"
	"github.com/fairyhunter13/storefront/internal/store"
	"github.com/fairyhunter13/storefront/internal/view"
)

var (
	errCatalogNotReady = errors.New("catalog not ready")
	errUnknownProduct  = errors.New("unknown product")
	errShuttingDown    = errors.New("shutting down")
)

type App struct {
	Cfg     config.Config
	Store   *store.Store
	Manager *queue.Manager
	Catalog *catalog.Query
	View    *view.Renderer
	closing atomic.Bool
	started time.Time
}

type cartItem struct {
	model.CartEntry
	Subtotal string `json:"subtotal"`
}

type cartResponse struct {
	Items      []cartItem `json:"items"`
	TotalCount int        `json:"total_count"`
	Total      string     `json:"total"`
	Open       bool       `json:"open"`
}

func NewApp(cfg config.Config, st *store.Store, m *queue.Manager, q *catalog.Query, v *view.Renderer) *App {
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "storefront_session"
	}
	return &App{Cfg: cfg, Store: st, Manager: m, Catalog: q, View: v, started: time.Now()}
}

func (a *App) StartShutdown() {
	a.closing.Store(true)
	a.Manager.CloseIntake()
}

func productID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil
}

// dispatch turns a request into an intent for the caller's session and waits
// for the resulting state.
func (a *App) dispatch(ctx context.Context, kind model.IntentKind, id int) (cart.State, error) {
	if a.closing.Load() || a.Manager.IsShuttingDown() {
		return cart.State{}, errShuttingDown
	}
	in := model.Intent{Kind: kind, SessionID: SessionIDFromContext(ctx), ProductID: id}
	if kind == model.IntentAdd {
		if a.Catalog.Snapshot().Status != catalog.StatusSuccess {
			return cart.State{}, errCatalogNotReady
		}
		p, ok := a.Catalog.Lookup(id)
		if !ok {
			return cart.State{}, errUnknownProduct
		}
		in.Product = p
	}
	st, err := a.Manager.Dispatch(ctx, in)
	if errors.Is(err, queue.ErrClosed) {
		return cart.State{}, errShuttingDown
	}
	return st, err
}

func dispatchStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errUnknownProduct):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errCatalogNotReady):
		return http.StatusServiceUnavailable, "catalog_unavailable"
	case errors.Is(err, errShuttingDown):
		return http.StatusServiceUnavailable, "shutting_down"
	default:
		return http.StatusInternalServerError, "dispatch_failed"
	}
}

func (a *App) pageHandler(w http.ResponseWriter, r *http.Request) {
	st := a.Store.Get(SessionIDFromContext(r.Context()))
	var buf bytes.Buffer
	if err := a.View.Render(&buf, a.Catalog.Snapshot(), st); err != nil {
		obs.Logger.Error("render_failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// formIntent handles the HTML controls: apply the intent, then send the
// browser back to the page.
func (a *App) formIntent(w http.ResponseWriter, r *http.Request, kind model.IntentKind, id int) {
	if _, err := a.dispatch(r.Context(), kind, id); err != nil {
		status, code := dispatchStatus(err)
		http.Error(w, code, status)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) addFormHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	a.formIntent(w, r, model.IntentAdd, id)
}

func (a *App) removeFormHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	a.formIntent(w, r, model.IntentRemove, id)
}

func (a *App) toggleFormHandler(w http.ResponseWriter, r *http.Request) {
	a.formIntent(w, r, model.IntentToggle, 0)
}

func (a *App) closeFormHandler(w http.ResponseWriter, r *http.Request) {
	a.formIntent(w, r, model.IntentClose, 0)
}

func (a *App) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	snap := a.Catalog.Snapshot()
	switch snap.Status {
	case catalog.StatusLoading:
		WriteJSONError(w, http.StatusServiceUnavailable, "loading", "")
	case catalog.StatusError:
		WriteJSONError(w, http.StatusBadGateway, "catalog_unavailable", "")
	default:
		writeJSON(w, http.StatusOK, snap.Products)
	}
}

func toCartResponse(st cart.State) cartResponse {
	items := make([]cartItem, 0, len(st.Items))
	for _, e := range st.Items {
		items = append(items, cartItem{CartEntry: e, Subtotal: cart.Subtotal(e).StringFixed(2)})
	}
	return cartResponse{
		Items:      items,
		TotalCount: st.BadgeCount(),
		Total:      cart.Total(st.Items).StringFixed(2),
		Open:       st.Open,
	}
}

func (a *App) getCartHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCartResponse(a.Store.Get(SessionIDFromContext(r.Context()))))
}

func (a *App) apiIntent(w http.ResponseWriter, r *http.Request, kind model.IntentKind, id int) {
	st, err := a.dispatch(r.Context(), kind, id)
	if err != nil {
		status, code := dispatchStatus(err)
		WriteJSONError(w, status, code, "")
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(st))
}

func (a *App) addItemHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	a.apiIntent(w, r, model.IntentAdd, id)
}

func (a *App) removeItemHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	a.apiIntent(w, r, model.IntentRemove, id)
}

func (a *App) toggleHandler(w http.ResponseWriter, r *http.Request) {
	a.apiIntent(w, r, model.IntentToggle, 0)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	enq, proc, backlog, depth := a.Manager.QueueMetrics()
	writeJSON(w, http.StatusOK, map[string]any{
		"intents_enqueued":  enq,
		"intents_processed": proc,
		"backlog_size":      backlog,
		"queue_depth":       depth,
		"sessions":          a.Store.Len(),
		"catalog_status":    a.Catalog.Snapshot().Status.String(),
		"uptime_sec":        time.Since(a.started).Seconds(),
	})
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.Document)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(httpopenapi.DocsPage)
}
