// Package ui serves the analysis results as JSON for the dashboard
// renderers. The statistical core stays pure; this layer owns the record
// set, the marginals cache, and the precomputed aggregates.
package ui

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"crashlens/adapters/stats/aggregate"
	"crashlens/adapters/stats/factors"
	"crashlens/adapters/stats/memo"
	"crashlens/domain/collision"
	"crashlens/domain/risk"
	"crashlens/internal"
	"crashlens/ports"
)

// App is the dashboard API application.
type App struct {
	router *chi.Mux
	log    *internal.Logger
	params risk.Params
	port   string

	records    []collision.Record
	stats      collision.DatasetStats
	loadReport ports.LoadReport
	marginals  ports.MarginalSource

	// Aggregates are computed once at startup; the record set does not
	// change within a session.
	factors     []risk.FactorResult
	heatmap     [7][24]aggregate.HeatmapCell
	geo         []aggregate.GeoCell
	hours       [24]aggregate.HourBucket
	hourSummary aggregate.HourlySummary
}

// Config holds UI application configuration
type Config struct {
	Port           string
	GeoCellDegrees float64
	Params         risk.Params
}

// NewApp creates the application and warms all aggregates.
func NewApp(cfg Config, records []collision.Record, loadReport ports.LoadReport) (*App, error) {
	app := &App{
		router:     chi.NewRouter(),
		log:        internal.DefaultLogger,
		params:     cfg.Params,
		port:       cfg.Port,
		records:    records,
		stats:      collision.ComputeStats(records),
		loadReport: loadReport,
		marginals:  memo.NewProvider(collision.Dimensions(), cfg.Params),
	}

	if err := app.warm(cfg.GeoCellDegrees); err != nil {
		return nil, fmt.Errorf("failed to warm aggregates: %w", err)
	}

	app.setupMiddleware()
	app.setupRoutes()
	return app, nil
}

// warm computes the independent aggregates concurrently. Each branch is a
// pure function over the immutable record set, so they share nothing.
func (a *App) warm(geoCellDeg float64) error {
	g, _ := errgroup.WithContext(context.Background())

	g.Go(func() error {
		a.factors = factors.Analyze(a.records, collision.Dimensions(), a.params)
		return nil
	})
	g.Go(func() error {
		// Prime the memoized marginals so first estimate requests are warm.
		a.marginals.Marginals(a.loadReport.Fingerprint, a.records)
		return nil
	})
	g.Go(func() error {
		a.heatmap = aggregate.Heatmap(a.records)
		return nil
	})
	g.Go(func() error {
		a.geo = aggregate.GeoGrid(a.records, geoCellDeg)
		return nil
	})
	g.Go(func() error {
		a.hours, a.hourSummary = aggregate.HourlyProfile(a.records)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("aggregates ready: %d factors, %d geo cells over %d records",
		len(a.factors), len(a.geo), a.stats.Total)
	return nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)

	a.router.Get("/api/summary", a.handleSummary)
	a.router.Get("/api/dimensions", a.handleDimensions)
	a.router.Get("/api/factors", a.handleFactors)
	a.router.Get("/api/marginals", a.handleMarginals)
	a.router.Post("/api/estimate", a.handleEstimate)
	a.router.Get("/api/heatmap", a.handleHeatmap)
	a.router.Get("/api/geo", a.handleGeo)
	a.router.Get("/api/hours", a.handleHours)
}

// Handler exposes the router for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Serve starts the HTTP server on the configured port.
func (a *App) Serve() error {
	addr := ":" + a.port
	a.log.Info("serving dashboard API on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
