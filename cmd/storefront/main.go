// Package main boots the storefront HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/storefront/internal/catalog"
	"github.com/fairyhunter13/storefront/internal/config"
	httpapi "github.com/fairyhunter13/storefront/internal/http"
	"github.com/fairyhunter13/storefront/internal/model"
	"github.com/fairyhunter13/storefront/internal/obs"
	"github.com/fairyhunter13/storefront/internal/queue"
	"github.com/fairyhunter13/storefront/internal/store"
	"github.com/fairyhunter13/storefront/internal/view"
)

func main() {
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "catalog_url", cfg.CatalogURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := obs.InitTracing(ctx, cfg.TraceExporter)
	if err != nil {
		obs.Logger.Error("tracing_init_error", "error", err)
		os.Exit(1)
	}

	renderer, err := view.New(cfg.CurrencySymbol)
	if err != nil {
		obs.Logger.Error("view_init_error", "error", err)
		os.Exit(1)
	}

	st := store.New()
	mgr := queue.NewManager(queue.New(cfg.QueueBuffer, cfg.QueueHighWatermark), st)
	mgr.Start(ctx)

	fetcher := catalog.NewFetcher(nil, cfg.CatalogURL)
	products := catalog.NewQuery(catalog.NewCache[[]model.Product](), catalog.ProductsKey, fetcher.FetchProducts)
	products.Start(ctx)

	app := httpapi.NewApp(cfg, st, mgr, products, renderer)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		obs.Logger.Info("shutdown_begin", "backlog_size", mgr.BacklogSize())

		app.StartShutdown()
		ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancelDrain()
		if drained := mgr.DrainUntil(ctxDrain); !drained {
			obs.Logger.Warn("shutdown_drain_timeout")
		} else {
			obs.Logger.Info("shutdown_drain_complete")
		}

		ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelSrv()
		return srv.Shutdown(ctxSrv)
	})

	if err := g.Wait(); err != nil {
		obs.Logger.Error("http_server_error", "error", err)
	}
	mgr.Stop()
	cancel()

	ctxFlush, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFlush()
	if err := shutdownTracing(ctxFlush); err != nil {
		obs.Logger.Error("tracing_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}
