package main

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/keyword-graph-evolution/pkg/api"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve metric series, keyword layouts and rendered plots over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.ServerAddress()
			}
			s := api.NewServer(api.Options{
				Source:     a.cfg,
				Categories: a.cfg.AllCategories(),
				Years:      a.cfg.Years(),
				PlotDir:    filepath.Dir(a.cfg.PlotPath("plot")),
				Evolve:     a.evolveOptions(),
				Layout:     a.layoutOptions(a.cfg.LayoutTop()),
			}, a.logger)

			server := &http.Server{
				Addr:              addr,
				Handler:           s.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.logger.Info().Str("address", addr).Msg("HTTP server starting")
				errc <- server.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-cmd.Context().Done():
			}

			a.logger.Info().Msg("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from server.address)")
	return cmd
}
