// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/advisor-search/internal/history"
	"github.com/pdiddy/advisor-search/internal/logging"
	"github.com/pdiddy/advisor-search/internal/metrics"
	"github.com/pdiddy/advisor-search/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Serve exposes POST /api/search for a browser form, plus GET /api/history,
GET /api/history/{id}, GET /health and GET /metrics. Each request runs its own
search; a quota failure is reported as 429 after the retries are spent.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default \":8080\")")
	serveCmd.Flags().Bool("record", false, "record every search in the history database")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.record", serveCmd.Flags().Lookup("record"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log = logging.New(cfg.LogLevel, logging.FormatJSON)

	m := metrics.New()
	searcher, err := newSearcher(cfg, m)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(server.Options{
		Searcher: searcher,
		History:  store,
		Metrics:  m,
		Provider: string(cfg.AI.Provider),
		Record:   cfg.Server.Record,
		Logger:   log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AI.APIKey == "" {
		log.Warn("no API key configured; searches will fail until one is set")
	}
	return srv.Start(ctx, cfg.Server.Addr)
}
