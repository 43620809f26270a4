// Package httpapi implements the HTTP dispatcher (spec.md §4.9): the
// conjunctive/disjunctive query endpoints, health and stats debug
// endpoints, Prometheus metrics, and static asset serving, fronted by a
// graceful-shutdown server loop.
//
// Grounded on go-mizu/mizu's App/Router (app.go's ServeContext signal-
// handling pattern) plus its requestlog, recover, and static middlewares,
// which this package wires directly rather than reimplementing.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-mizu/mizu"
	recovermw "github.com/go-mizu/mizu/middlewares/recover"
	"github.com/go-mizu/mizu/middlewares/requestlog"
	"github.com/go-mizu/mizu/middlewares/static"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wizenheimer/marcodex/internal/query"
	"github.com/wizenheimer/marcodex/internal/tokenize"
)

// Options configures one server run (spec.md §6's `serve` subcommand).
type Options struct {
	DataDir   string
	Addr      string
	StaticDir string
	Stem      bool
	Logger    *slog.Logger
}

// Serve opens the index at opts.DataDir and blocks serving HTTP until
// SIGINT/SIGTERM, then drains in-flight requests before returning.
func Serve(opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	proc, err := query.Open(opts.DataDir, tokenize.Options{Stem: opts.Stem})
	if err != nil {
		return fmt.Errorf("httpapi: open index: %w", err)
	}
	defer proc.Close()

	app := mizu.New(mizu.WithLogger(logger))
	app.Use(recovermw.New())
	app.Use(requestlog.WithLogger(logger))
	if opts.StaticDir != "" {
		app.Use(static.New(opts.StaticDir))
	}

	app.Get("/disjunctive_query", disjunctiveHandler(proc))
	app.Get("/conjunctive_query", conjunctiveHandler(proc))
	app.Get("/stats", statsHandler(proc))
	app.Get("/healthz", healthzHandler())

	// /metrics is served by promhttp directly (not a mizu.Ctx handler); a
	// thin stdlib mux in front of the app routes it there and delegates
	// everything else unchanged.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", app)

	srv := &http.Server{Addr: opts.Addr, Handler: mux}

	parent, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.ServeContext(parent, srv, func() error { return srv.ListenAndServe() })
}
