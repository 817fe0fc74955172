package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/plot"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/timeline"
)

// metricPlot binds a registered metric to its output file.
type metricPlot struct {
	metric timeline.Metric
	file   string
	title  string
}

var metricPlots = map[string]metricPlot{
	"graph_size":       {timeline.NodeCount, "graph_size.png", "Keyword graph size"},
	"density":          {timeline.Density, "density.png", "Keyword graph density"},
	"edges_clustering": {timeline.Clustering, "edges_clustering.png", "Average clustering coefficient"},
	"components":       {timeline.ComponentCount, "components.png", "Connected components"},
	"communities":      {timeline.CommunityCount, "communities.png", "Detected communities"},
	"modularity":       {timeline.Modularity, "modularity.png", "Modularity of detected communities"},
}

func newMetricCmd(a *app, use, short string, plots ...metricPlot) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			metrics := make([]timeline.Metric, len(plots))
			for i, p := range plots {
				metrics[i] = p.metric
			}
			all, err := timeline.EvolveAll(cmd.Context(), a.cfg, a.cfg.AllCategories(), a.cfg.Years(), metrics, a.evolveOptions(), a.logger)
			if err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			for i, p := range plots {
				series := all[i]
				for _, s := range series {
					a.logger.Info().Str("category", s.Category).Float64(p.metric.Name, last(s.Values)).Msg("category done")
				}
				if err := a.savePlot(p.file, plot.LineChart{
					Title:  p.title,
					XLabel: "Year",
					YLabel: p.metric.Label,
					Series: series,
				}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// evolveOptions reads worker and seed settings for the yearly metric loop.
func (a *app) evolveOptions() timeline.Options {
	return timeline.Options{
		Parallel: a.cfg.Parallel(),
		Workers:  a.cfg.NumWorkers(),
		Seed:     a.cfg.RandomSeed(),
	}
}

func newShortestPathCmd(a *app) *cobra.Command {
	var samples int
	cmd := &cobra.Command{
		Use:   "shortest-path",
		Short: "Plot the sampled average shortest path on the largest component",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := timeline.Options{Parallel: a.cfg.Parallel(), Workers: a.cfg.NumWorkers()}
			series, err := timeline.ShortestPathAll(cmd.Context(), a.cfg, a.cfg.AllCategories(), a.cfg.Years(), samples, a.cfg.RandomSeed(), opts, a.logger)
			if err != nil {
				return err
			}
			return a.savePlot("average_shortest_paths.png", plot.LineChart{
				Title:  fmt.Sprintf("Approximated average shortest path between unconnected nodes. Sample size %d", samples),
				XLabel: "Year",
				YLabel: "Average shortest path length for two random keywords",
				Series: series,
			})
		},
		PreRun: func(cmd *cobra.Command, _ []string) {
			if !cmd.Flags().Changed("samples") {
				samples = a.cfg.Samples()
			}
		},
	}
	cmd.Flags().IntVarP(&samples, "samples", "s", 1000, "Number of node pairs to sample per year")
	return cmd
}

func (a *app) savePlot(name string, c plot.LineChart) error {
	path := a.cfg.PlotPath(name)
	if err := plot.Lines(path, c); err != nil {
		return err
	}
	a.logger.Info().Str("path", path).Msg("plot saved")
	return nil
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
