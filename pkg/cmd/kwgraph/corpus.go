package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/config"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/corpus"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/plot"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/stats"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/store"
	"github.com/gilchrisn/keyword-graph-evolution/pkg/timeline"
)

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, store.OptionsFromConfig(a.cfg), a.logger)
}

func (a *app) subset() (map[string]bool, error) {
	ids, err := corpus.LoadSubsetIDs(a.cfg.SubsetIDsFile())
	if err != nil {
		return nil, err
	}
	a.logger.Info().Int("papers", len(ids)).Msg("paper subset loaded")
	return ids, nil
}

func newPapersPerYearCmd(a *app) *cobra.Command {
	var keyType string
	cmd := &cobra.Command{
		Use:   "papers-per-year",
		Short: "Plot the papers published per year and keyword category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories, err := a.categories(keyType, true)
			if err != nil {
				return err
			}
			subset, err := a.subset()
			if err != nil {
				return err
			}
			paperCats, err := corpus.PaperCategories(a.cfg, categories, subset, a.logger)
			if err != nil {
				return err
			}
			db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			series, total, err := stats.PapersPerYear(cmd.Context(), db, paperCats, categories, a.cfg.Years())
			if err != nil {
				return err
			}
			a.logger.Info().Int("papers", total).Msg("counted papers")
			return a.savePlot("papers_per_year.png", plot.LineChart{
				Title:  "Papers per year",
				XLabel: "Year",
				YLabel: "Papers published",
				Series: series,
			})
		},
	}
	cmd.Flags().StringVarP(&keyType, "key-type", "k", config.AllKeys, "Keyword category: one of the configured categories or all_keys")
	return cmd
}

func newKeywordsPerPaperCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keywords-per-paper",
		Short: "Plot the mean number of keywords per paper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subset, err := a.subset()
			if err != nil {
				return err
			}
			counts, err := corpus.KeywordCounts(a.cfg, a.cfg.Categories(), subset, a.logger)
			if err != nil {
				return err
			}
			db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			series, err := stats.KeywordsPerPaper(cmd.Context(), db, counts, a.cfg.AllCategories(), a.cfg.Years())
			if err != nil {
				return err
			}
			return a.savePlot("keywords_mean.png", plot.LineChart{
				Title:  "Keywords per paper",
				XLabel: "Year",
				YLabel: "Mean number of keywords per paper",
				Series: series,
			})
		},
	}
}

func newKeywordStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keyword-stats",
		Short: "Plot keyword occurrences and the growth of the keyword vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			categories := a.cfg.Categories()
			subset, err := a.subset()
			if err != nil {
				return err
			}
			paperKeywords, err := corpus.PaperKeywords(a.cfg, categories, subset, a.logger)
			if err != nil {
				return err
			}
			db, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			usage, err := stats.KeywordUsage(cmd.Context(), db, paperKeywords, categories, a.cfg.Years())
			if err != nil {
				return err
			}
			vocab := usage.Vocabulary()
			for _, v := range vocab {
				a.logger.Info().Str("category", v.Category).Float64("keywords", last(v.Known)).Msg("total keywords")
			}

			pick := func(metric string, values func(stats.Vocabulary) []float64) []timeline.Series {
				out := make([]timeline.Series, len(vocab))
				for i, v := range vocab {
					out[i] = timeline.Series{Category: v.Category, Metric: metric, Years: v.Years, Values: values(v)}
				}
				return out
			}

			if err := a.savePlot("keyword_occurrence.png", plot.LineChart{
				Title:  "Keyword occurrences in all papers (counting duplicates)",
				XLabel: "Year",
				YLabel: "Total keyword occurrences",
				Series: pick("mentions", func(v stats.Vocabulary) []float64 { return v.Mentions }),
			}); err != nil {
				return err
			}
			if err := a.savePlot("active_keywords_rate.png", plot.LineChart{
				Title:  "Rate of keywords known until a year that is actively used",
				XLabel: "Year",
				YLabel: "Keywords used / keywords known",
				Series: pick("active_rate", func(v stats.Vocabulary) []float64 { return v.ActiveRate }),
			}); err != nil {
				return err
			}
			for _, v := range vocab {
				path := a.cfg.PlotPath(fmt.Sprintf("new_keywords_%s.png", v.Category))
				err := plot.DualAxis(path, plot.DualAxisChart{
					Title:          fmt.Sprintf("New keywords (%s)", v.Category),
					XLabel:         "Year",
					PrimaryLabel:   "Keywords introduced",
					SecondaryLabel: "Keywords discovered so far",
					Primary:        timeline.Series{Category: v.Category, Metric: "new", Years: v.Years, Values: v.New},
					Secondary:      timeline.Series{Category: "discovered", Metric: "discovered", Years: v.Years, Values: v.Discovered},
				})
				if err != nil {
					return err
				}
				a.logger.Info().Str("path", path).Msg("plot saved")
			}
			return a.savePlot("new_keywords_rate.png", plot.LineChart{
				Title:  "New keywords relative to keyword occurrences",
				XLabel: "Year",
				YLabel: "New keywords / keyword occurrences",
				Series: pick("new_rate", func(v stats.Vocabulary) []float64 { return v.NewRate }),
			})
		},
	}
}

func newFindPaperCmd(a *app) *cobra.Command {
	var (
		id1, id2   string
		cat1, cat2 string
		kw1, kw2   string
		n          int
	)
	cmd := &cobra.Command{
		Use:   "find-paper",
		Short: "Find papers mentioning two keywords together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats1, err := a.keywordCategories(id1, cat1)
			if err != nil {
				return err
			}
			cats2, err := a.keywordCategories(id2, cat2)
			if err != nil {
				return err
			}
			found, err := corpus.FindConnectingPapersIn(a.cfg, cats1, cats2, id1, id2, n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "First paper(s) connecting %s%s to %s%s: [%s]\n",
				id1, describe(kw1), id2, describe(kw2), strings.Join(found, ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&id1, "id1", "", "First keyword identifier")
	cmd.Flags().StringVar(&cat1, "cat1", "", "Category of the first keyword (guessed from the identifier if empty)")
	cmd.Flags().StringVar(&kw1, "kw1", "", "First keyword name, for display")
	cmd.Flags().StringVar(&id2, "id2", "", "Second keyword identifier")
	cmd.Flags().StringVar(&cat2, "cat2", "", "Category of the second keyword (guessed from the identifier if empty)")
	cmd.Flags().StringVar(&kw2, "kw2", "", "Second keyword name, for display")
	cmd.Flags().IntVarP(&n, "n", "n", 1, "Maximum number of papers to return")
	cmd.MarkFlagRequired("id1")
	cmd.MarkFlagRequired("id2")
	return cmd
}

func (a *app) keywordCategories(id, cat string) ([]string, error) {
	if cat == "" {
		return corpus.GuessCategories(id), nil
	}
	if cat == config.AllKeys {
		return nil, fmt.Errorf("%w: %q has no category file", config.ErrUnknownCategory, cat)
	}
	if err := a.cfg.ValidateCategory(cat); err != nil {
		return nil, err
	}
	return []string{cat}, nil
}

func describe(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", name)
}
