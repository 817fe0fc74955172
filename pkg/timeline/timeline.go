package timeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/kwgraph"
)

// GraphSource locates the yearly edge list of a keyword category.
type GraphSource interface {
	GraphFile(category string, year int) string
}

// Series is one metric of one category over time.
type Series struct {
	Category string    `json:"category"`
	Metric   string    `json:"metric"`
	Years    []int     `json:"years"`
	Values   []float64 `json:"values"`
}

// Options controls how categories are processed. Seed drives every
// randomised metric.
type Options struct {
	Parallel bool
	Workers  int
	Seed     int64
}

// Evolve starts from an empty graph, merges the edge list of every year in
// turn and records each metric after each year.
func Evolve(ctx context.Context, src GraphSource, category string, years []int, metrics []Metric, seed int64, logger zerolog.Logger) ([]Series, error) {
	series := make([]Series, len(metrics))
	for i, m := range metrics {
		series[i] = Series{
			Category: category,
			Metric:   m.Name,
			Years:    make([]int, 0, len(years)),
			Values:   make([]float64, 0, len(years)),
		}
	}

	start := time.Now()
	graph := kwgraph.New()
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var isolated int
		var err error
		graph, isolated, err = kwgraph.BuildGraph(src.GraphFile(category, year), graph, kwgraph.DefaultLoadOptions())
		if err != nil {
			return nil, fmt.Errorf("category %s, year %d: %w", category, year, err)
		}

		ev := logger.Debug().
			Str("category", category).
			Int("year", year).
			Int("nodes", graph.NodeCount()).
			Int("edges", graph.EdgeCount()).
			Int("isolated", isolated)
		snap := NewSnapshot(graph, year, seed)
		for i, m := range metrics {
			v := m.Measure(snap)
			series[i].Years = append(series[i].Years, year)
			series[i].Values = append(series[i].Values, v)
			ev = ev.Float64(m.Name, v)
		}
		ev.Msg("year merged")
	}

	logger.Info().
		Str("category", category).
		Int("years", len(years)).
		Int("nodes", graph.NodeCount()).
		Dur("elapsed", time.Since(start)).
		Msg("category done")

	return series, nil
}

// EvolveAll runs Evolve for several metrics over several categories, reading
// every edge list once. The result is indexed by metric, then category, in
// the given order regardless of scheduling.
func EvolveAll(ctx context.Context, src GraphSource, categories []string, years []int, metrics []Metric, opts Options, logger zerolog.Logger) ([][]Series, error) {
	results := make([][]Series, len(metrics))
	for m := range results {
		results[m] = make([]Series, len(categories))
	}

	run := func(ctx context.Context, i int) error {
		s, err := Evolve(ctx, src, categories[i], years, metrics, opts.Seed, logger)
		if err != nil {
			return err
		}
		for m := range metrics {
			results[m][i] = s[m]
		}
		return nil
	}

	if !opts.Parallel {
		for i := range categories {
			if err := run(ctx, i); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i := range categories {
		i := i
		g.Go(func() error { return run(gctx, i) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ShortestPathSeries estimates, per year, the mean shortest path between
// unconnected keywords in the largest component of that year's graph.
// Each year is read on its own without isolated keywords. Years with an
// empty graph or no measurable pair are left out of the series.
func ShortestPathSeries(ctx context.Context, src GraphSource, category string, years []int, samples int, rng *rand.Rand, logger zerolog.Logger) (Series, error) {
	series := Series{Category: category, Metric: "shortest_path"}

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return Series{}, err
		}

		graph, _, err := kwgraph.BuildGraph(src.GraphFile(category, year), nil, kwgraph.LoadOptions{AddIsolated: false})
		if err != nil {
			return Series{}, fmt.Errorf("category %s, year %d: %w", category, year, err)
		}
		if graph.NodeCount() == 0 {
			continue
		}

		core := graph.Subgraph(kwgraph.LargestComponent(graph))
		res, err := kwgraph.SampleShortestPaths(core, samples, rng)
		if err != nil {
			return Series{}, fmt.Errorf("category %s, year %d: %w", category, year, err)
		}

		logger.Debug().
			Str("category", category).
			Int("year", year).
			Int("pairs", res.Pairs).
			Bool("exhaustive", res.Exhaustive).
			Float64("average", res.Average).
			Msg("shortest paths sampled")

		if res.Average == -1 {
			continue
		}
		series.Years = append(series.Years, year)
		series.Values = append(series.Values, res.Average)
	}

	logger.Info().Str("category", category).Int("years_used", len(series.Years)).Msg("category done")
	return series, nil
}

// ShortestPathAll runs ShortestPathSeries per category. Each category draws
// from its own generator seeded from seed, so results do not depend on scheduling.
func ShortestPathAll(ctx context.Context, src GraphSource, categories []string, years []int, samples int, seed int64, opts Options, logger zerolog.Logger) ([]Series, error) {
	results := make([]Series, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	limit := 1
	if opts.Parallel {
		limit = opts.Workers
	}
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range categories {
		i := i
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed + int64(i)))
			s, err := ShortestPathSeries(gctx, src, categories[i], years, samples, rng, logger)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Accumulate merges the edge lists of years into one graph, the state of
// the category graph at the last year.
func Accumulate(ctx context.Context, src GraphSource, category string, years []int) (*kwgraph.Graph, error) {
	graph := kwgraph.New()
	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		graph, _, err = kwgraph.BuildGraph(src.GraphFile(category, year), graph, kwgraph.DefaultLoadOptions())
		if err != nil {
			return nil, fmt.Errorf("category %s, year %d: %w", category, year, err)
		}
	}
	return graph, nil
}
