// Package api serves keyword graph series and rendered plots over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/layout"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/timeline"
)

// Options configure a Server.
type Options struct {
	Source         timeline.GraphSource
	Categories     []string
	Years          []int
	PlotDir        string
	Evolve         timeline.Options
	Layout         layout.Options
	AllowedOrigins []string
}

// Server answers read-only queries over the yearly keyword graphs. Series
// are computed on first request and cached per metric.
type Server struct {
	opts   Options
	logger zerolog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string][]timeline.Series
}

// NewServer creates a server over the given graph files.
func NewServer(opts Options, logger zerolog.Logger) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Layout == (layout.Options{}) {
		opts.Layout = layout.DefaultOptions()
	}
	return &Server{
		opts:   opts,
		logger: logger,
		cache:  make(map[string][]timeline.Series),
	}
}

// Handler returns the routed handler with logging, recovery and CORS applied.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.SetupRoutes(router)
	router.Use(LoggingMiddleware(s.logger))
	router.Use(RecoveryMiddleware(s.logger))

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

// SetupRoutes registers the API on router.
func (s *Server) SetupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/metrics", s.ListMetrics).Methods(http.MethodGet)
	api.HandleFunc("/series/{metric}", s.GetSeries).Methods(http.MethodGet)
	api.HandleFunc("/layout/{category}/{year:[0-9]+}", s.GetLayout).Methods(http.MethodGet)

	router.HandleFunc("/plots/{file}", s.GetPlot).Methods(http.MethodGet)
}

// HealthCheck reports the analysed window.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, s.logger, "ok", map[string]interface{}{
		"categories": s.opts.Categories,
		"years":      len(s.opts.Years),
	})
}

// ListMetrics lists the metrics that can be requested as series.
func (s *Server) ListMetrics(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, s.logger, "Metrics retrieved successfully", timeline.MetricNames())
}

// GetSeries returns one series per category for the requested metric.
func (s *Server) GetSeries(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["metric"]
	metric, err := timeline.LookupMetric(name)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "Metric not found", err)
		return
	}

	series, err := s.series(r.Context(), metric)
	if err != nil {
		s.logger.Error().Err(err).Str("metric", name).Msg("Failed to compute series")
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, s.logger, status, "Failed to compute series", err)
		return
	}
	writeSuccess(w, s.logger, "Series retrieved successfully", series)
}

func (s *Server) series(ctx context.Context, metric timeline.Metric) ([]timeline.Series, error) {
	s.mu.RLock()
	cached, ok := s.cache[metric.Name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	// The computation outlives any single request; each caller stops
	// waiting when its own context ends.
	ch := s.group.DoChan(metric.Name, func() (interface{}, error) {
		all, err := timeline.EvolveAll(context.WithoutCancel(ctx), s.opts.Source, s.opts.Categories, s.opts.Years, []timeline.Metric{metric}, s.opts.Evolve, s.logger)
		if err != nil {
			return nil, err
		}
		series := all[0]
		s.mu.Lock()
		s.cache[metric.Name] = series
		s.mu.Unlock()
		return series, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]timeline.Series), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetLayout places the most central keywords of a category graph as it
// stood at the requested year. The optional top query overrides the
// number of keywords.
func (s *Server) GetLayout(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	category := vars["category"]
	if !contains(s.opts.Categories, category) {
		writeError(w, s.logger, http.StatusNotFound, "Category not found", nil)
		return
	}
	year, _ := strconv.Atoi(vars["year"])
	var years []int
	for _, y := range s.opts.Years {
		if y <= year {
			years = append(years, y)
		}
	}
	if len(years) == 0 || years[len(years)-1] != year {
		writeError(w, s.logger, http.StatusNotFound, "Year not analysed", nil)
		return
	}

	opts := s.opts.Layout
	if topStr := r.URL.Query().Get("top"); topStr != "" {
		top, err := strconv.Atoi(topStr)
		if err != nil || top <= 0 {
			writeError(w, s.logger, http.StatusBadRequest, "Invalid top parameter", err)
			return
		}
		opts.Top = top
	}

	g, err := timeline.Accumulate(r.Context(), s.opts.Source, category, years)
	if err != nil {
		s.logger.Error().Err(err).Str("category", category).Int("year", year).Msg("Failed to build graph")
		writeError(w, s.logger, http.StatusInternalServerError, "Failed to build graph", err)
		return
	}
	l, err := layout.Compute(g, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, layout.ErrEmptyGraph) {
			status = http.StatusNotFound
		}
		writeError(w, s.logger, status, "Failed to compute layout", err)
		return
	}
	writeSuccess(w, s.logger, "Layout computed successfully", l)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// GetPlot serves a rendered file from the plot directory.
func (s *Server) GetPlot(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, s.logger, http.StatusBadRequest, "Invalid plot name", nil)
		return
	}
	path := filepath.Join(s.opts.PlotDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, s.logger, http.StatusNotFound, "Plot not found", nil)
		return
	}
	http.ServeFile(w, r, path)
}
