package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/config"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/layout"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/timeline"
)

func (a *app) layoutOptions(top int) layout.Options {
	opts := layout.DefaultOptions()
	opts.Top = top
	opts.MaxDistance = a.cfg.LayoutMaxDistance()
	return opts
}

func newLayoutCmd(a *app) *cobra.Command {
	var (
		keyType string
		year    int
		top     int
	)
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Write a keyword map of the most central keywords as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateCategory(keyType); err != nil {
				return err
			}
			if !cmd.Flags().Changed("year") {
				year = a.cfg.YearEnd()
			}
			if !cmd.Flags().Changed("top") {
				top = a.cfg.LayoutTop()
			}

			g, err := timeline.Accumulate(cmd.Context(), a.cfg, keyType, config.YearRange(a.cfg.YearBegin(), year, a.cfg.Chunk()))
			if err != nil {
				return err
			}
			l, err := layout.Compute(g, a.layoutOptions(top))
			if err != nil {
				return fmt.Errorf("category %s, year %d: %w", keyType, year, err)
			}

			path := a.cfg.PlotPath(fmt.Sprintf("layout_%s_%d.json", keyType, year))
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			data, err := json.MarshalIndent(l, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return err
			}
			a.logger.Info().Str("path", path).Int("keywords", len(l.Nodes)).Msg("layout saved")
			return nil
		},
	}
	cmd.Flags().StringVarP(&keyType, "key-type", "k", config.AllKeys, "Keyword category: one of the configured categories or all_keys")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Last year merged into the graph (default: analysis.year_end)")
	cmd.Flags().IntVarP(&top, "top", "t", 50, "Number of keywords to place, by PageRank")
	return cmd
}
