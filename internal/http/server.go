// Package http serves the bookkeeping JSON API: transaction, category and
// budget CRUD plus the statistics, calendar and chart endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/zhangyujiu/HouseKeeper/internal/cache"
	"github.com/zhangyujiu/HouseKeeper/internal/charts"
	"github.com/zhangyujiu/HouseKeeper/internal/middleware/trace"
	"github.com/zhangyujiu/HouseKeeper/internal/services"
	"github.com/zhangyujiu/HouseKeeper/internal/watch"
)

type Server struct {
	http.Server

	ledger   *services.LedgerService
	renderer *charts.Renderer

	// Rendered chart PNGs are memoized and purged on any ledger change.
	chartCache *cache.LRUCache[[]byte]

	// The home overview is served from a snapshot that recomputes on
	// every ledger change, so reads may trail a write by one recompute.
	overview *watch.Combined[services.HomeView]

	recentLimit  int
	stopWatching func()
	shutdownOnce sync.Once
}

type Options struct {
	Addr        string
	RecentLimit int
	CacheSize   int
	CacheTTL    time.Duration
}

// NewServer configures routes and the chart cache, returning a
// ready-to-run server. When hub is non-nil the cache follows ledger
// changes.
func NewServer(opts Options, ledger *services.LedgerService, hub *watch.Hub) *Server {
	mux := http.NewServeMux()

	cacheSize := opts.CacheSize
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	recentLimit := opts.RecentLimit
	if recentLimit <= 0 {
		recentLimit = 10
	}

	traced := trace.NewMiddleware(trace.ExtractClientIP)

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           traced.Middleware(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:      ledger,
		renderer:    charts.NewRenderer(),
		chartCache:  cache.NewLRUCache[[]byte](cacheSize, cacheTTL),
		recentLimit: recentLimit,
	}

	if hub != nil {
		s.stopWatching = s.followChanges(hub)
		s.overview = watch.NewCombined(func() (services.HomeView, error) {
			return ledger.Home(context.Background(), recentLimit)
		}, hub)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/overview", s.handleOverview)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("GET /api/budgets/{id}/usage", s.handleBudgetUsage)

	mux.HandleFunc("GET /api/statistics", s.handleStatistics)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/calendar/day", s.handleCalendarDay)

	mux.HandleFunc("GET /api/charts/trend.png", s.handleTrendChart)
	mux.HandleFunc("GET /api/charts/breakdown.png", s.handleBreakdownChart)

	return s
}

// followChanges purges the chart cache whenever the ledger changes.
func (s *Server) followChanges(hub *watch.Hub) func() {
	changes, cancel := hub.Subscribe()
	go func() {
		for c := range changes {
			slog.Debug("Purging chart cache", "entity", c.Entity, "action", c.Action, "id", c.ID)
			s.chartCache.Purge()
		}
	}()
	return cancel
}

// ChartCache exposes the PNG cache so the caller can hook it into a
// cleanup janitor.
func (s *Server) ChartCache() cache.Cleaner {
	return s.chartCache
}

// Shutdown stops the change watcher and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopWatching != nil {
			s.stopWatching()
		}
		if s.overview != nil {
			s.overview.Close()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
