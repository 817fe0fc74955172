package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/config"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	configFile string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&app{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "kwgraph",
		Short: "Evolution of keyword co-occurrence graphs",
		Long: "Builds the yearly keyword co-occurrence graphs of a PubMed subset, " +
			"measures how they grow and renders the results as plots.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to a YAML, JSON or TOML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newMetricCmd(a, "graph-size", "Plot the number of keywords over time", metricPlots["graph_size"]),
		newMetricCmd(a, "density", "Plot graph density over time", metricPlots["density"]),
		newMetricCmd(a, "clustering", "Plot the average clustering coefficient over time", metricPlots["edges_clustering"]),
		newMetricCmd(a, "components", "Plot the number of connected components over time", metricPlots["components"]),
		newMetricCmd(a, "communities", "Plot detected communities and modularity over time", metricPlots["communities"], metricPlots["modularity"]),
		newShortestPathCmd(a),
		newDistanceCmd(a),
		newSankeyCmd(a),
		newKeywordStatsCmd(a),
		newKeywordsPerPaperCmd(a),
		newPapersPerYearCmd(a),
		newFindPaperCmd(a),
		newLayoutCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) init() error {
	a.cfg = config.NewConfig()
	if a.configFile != "" {
		if err := a.cfg.LoadFromFile(a.configFile); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		a.cfg.Set("logging.level", a.logLevel)
	}
	a.logger = a.cfg.CreateLogger().With().Str("run_id", uuid.New().String()).Logger()
	a.logger.Debug().
		Int("year_begin", a.cfg.YearBegin()).
		Int("year_end", a.cfg.YearEnd()).
		Strs("categories", a.cfg.Categories()).
		Msg("configuration loaded")
	return nil
}

// categories resolves a --key-type value. AllKeys selects either the
// combined graph alone or every configured category, depending on expand.
func (a *app) categories(keyType string, expand bool) ([]string, error) {
	if err := a.cfg.ValidateCategory(keyType); err != nil {
		return nil, err
	}
	if keyType == config.AllKeys && expand {
		return a.cfg.Categories(), nil
	}
	return []string{keyType}, nil
}
