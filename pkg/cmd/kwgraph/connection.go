package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/config"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/connection"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/kwgraph"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/plot"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/timeline"
)

// sankeyChunk is the year step of the Sankey diagrams.
const sankeyChunk = 10

func newDistanceCmd(a *app) *cobra.Command {
	var keyType string
	cmd := &cobra.Command{
		Use:   "cnx-distance",
		Short: "Plot the distance keywords had before they got connected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateCategory(keyType); err != nil {
				return err
			}
			// The distance files of the last year are not written.
			years := config.YearRange(a.cfg.YearBegin(), a.cfg.YearEnd()-1, a.cfg.Chunk())
			ds, err := connection.ReadDistanceSeries(cmd.Context(), a.cfg, keyType, years, a.logger)
			if err != nil {
				return err
			}

			series := make([]timeline.Series, 0, len(connection.Tiers))
			for _, tier := range connection.Tiers {
				series = append(series, timeline.Series{
					Category: tier,
					Metric:   "cnx_distance",
					Years:    ds.Years,
					Values:   ds.Fractions[tier],
				})
			}
			return a.savePlot(fmt.Sprintf("cnx_distance_%s.png", keyType), plot.LineChart{
				Title:  fmt.Sprintf("Distances of new keyword connections (%s)", keyType),
				XLabel: "Year",
				YLabel: "Percentage of all new connections",
				Series: series,
			})
		},
	}
	cmd.Flags().StringVarP(&keyType, "key-type", "k", config.AllKeys, "Keyword category: one of the configured categories or all_keys")
	return cmd
}

func newSankeyCmd(a *app) *cobra.Command {
	var (
		keyType string
		year    int
		samples int
		mode    string
	)
	cmd := &cobra.Command{
		Use:   "sankey",
		Short: "Follow keyword pairs through the years until they get connected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateCategory(keyType); err != nil {
				return err
			}
			if !cmd.Flags().Changed("year") {
				year = a.cfg.YearEnd() - 1
			}
			if year >= a.cfg.YearEnd() {
				return fmt.Errorf("year must be before %d, got %d", a.cfg.YearEnd(), year)
			}
			rng := rand.New(rand.NewSource(a.cfg.RandomSeed()))

			var pairs []connection.Pair
			switch mode {
			case "connected":
				all, err := connection.ReadNewConnectionFile(a.cfg, keyType, year)
				if err != nil {
					return err
				}
				if samples < 0 {
					a.logger.Info().Msg("all new connections are used, this could take a while")
				} else {
					a.logger.Info().Int("samples", samples).Int("year", year).Msg("sampling edges that get a link")
				}
				if pairs, err = connection.SampleConnected(all, samples, rng); err != nil {
					return err
				}
			case "unconnected":
				if samples < 0 {
					return errors.New("unconnected mode needs --samples: using all non-existent edges exceeds capacity")
				}
				a.logger.Info().Int("samples", samples).Int("until", year+1).Msg("sampling keyword pairs that stay without connection")
				next, _, err := kwgraph.BuildGraph(a.cfg.GraphFile(keyType, year+1), nil, kwgraph.DefaultLoadOptions())
				if err != nil {
					return err
				}
				if pairs, err = connection.SampleUnconnected(next, samples, rng); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown mode %q: use connected or unconnected", mode)
			}

			threshold := a.cfg.DistanceThreshold()
			years := config.YearRange(a.cfg.YearBegin(), a.cfg.YearEnd(), sankeyChunk)
			states, err := connection.TrackPairs(cmd.Context(), a.cfg, keyType, years, pairs, threshold, a.logger)
			if err != nil {
				return err
			}
			labels, _ := connection.DistanceLabels(years, threshold)
			diagram := connection.BuildSankey(states, labels)
			diagram.Title = fmt.Sprintf("Distance of %d sampled keyword pairs that get connected in %d", len(pairs), year)

			path := a.cfg.PlotPath(fmt.Sprintf("pairs_before_cnx_%s_%d_%s.html", keyType, year, mode))
			if err := plot.Sankey(path, diagram); err != nil {
				return err
			}
			a.logger.Info().Str("path", path).Msg("plot saved")
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyType, "key-type", "k", config.AllKeys, "Keyword category: one of the configured categories or all_keys")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year the observed connections are sampled from (default: last year - 1)")
	cmd.Flags().IntVarP(&samples, "samples", "s", -1, "Number of keyword pairs to observe; negative uses all new connections")
	cmd.Flags().StringVarP(&mode, "mode", "m", "connected", "Pairs to sample: connected or unconnected")
	return cmd
}
