package httpapi

import (
	"expvar"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})

	r.HandleFunc("/", app.pageHandler).Methods(http.MethodGet)
	r.HandleFunc("/cart/{id:[0-9]+}/add", app.addFormHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/{id:[0-9]+}/remove", app.removeFormHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/toggle", app.toggleFormHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/close", app.closeFormHandler).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", app.listProductsHandler).Methods(http.MethodGet)
	api.HandleFunc("/cart", app.getCartHandler).Methods(http.MethodGet)
	api.HandleFunc("/cart/items/{id:[0-9]+}", app.addItemHandler).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{id:[0-9]+}", app.removeItemHandler).Methods(http.MethodDelete)
	api.HandleFunc("/cart/toggle", app.toggleHandler).Methods(http.MethodPost)

	r.HandleFunc("/healthz", app.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/debug/metrics", app.metricsHandler).Methods(http.MethodGet)
	r.Handle("/debug/vars", expvar.Handler())
	r.HandleFunc("/openapi.yaml", app.openapiHandler).Methods(http.MethodGet)
	r.HandleFunc("/docs", app.docsHandler).Methods(http.MethodGet)

	return WithRequestID(WithLogging(WithSession(app.Cfg.SessionCookie, r)))
}
