package main

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flipscout/flipscout/internal/enrich"
	"github.com/flipscout/flipscout/internal/pipeline"
	"github.com/flipscout/flipscout/internal/ratelimit"
	"github.com/flipscout/flipscout/internal/seen"
	"github.com/flipscout/flipscout/pkg/ebay"
)

var (
	runEnrichMode string
	runQueries    []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one discovery pass and write the ranked candidate batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Ebay.ClientID == "" || cfg.Ebay.ClientSecret == "" {
			return eris.New("missing ebay client_id or client_secret")
		}

		mode, err := pipeline.ParseEnrichMode(runEnrichMode)
		if err != nil {
			return err
		}
		// bulk with no provider stays fatal; per-item quietly degrades
		if mode == pipeline.EnrichItems && cfg.AI.Provider == "" {
			zap.L().Info("no analysis provider configured, skipping enrichment")
			mode = pipeline.EnrichOff
		}
		if len(runQueries) > 0 {
			cfg.Ebay.Queries = runQueries
		}

		store, err := seen.NewSQLite(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "open seen store")
		}
		defer store.Close()

		source := ebay.NewClient(cfg.Ebay.ClientID, cfg.Ebay.ClientSecret, cfg.Ebay.MarketplaceID,
			ebay.WithHTTPClient(httpClientWithTimeout(cfg.Ebay.TimeoutSecs)),
		)
		pacer := ratelimit.NewPacer(cfg.AI.RequestsPerMinute)
		enricher := enrich.New(cfg.AI, pacer)

		summary, err := pipeline.New(cfg, source, store, enricher).Run(ctx, mode)
		if err != nil {
			return err
		}

		if summary.Candidates == 0 {
			zap.L().Info("no new candidates this run", zap.Int("summaries", summary.Found))
			return nil
		}
		zap.L().Info("run finished",
			zap.String("run_id", summary.RunID),
			zap.Int("candidates", summary.Candidates),
			zap.String("artifact", summary.Artifact),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runEnrichMode, "enrich", "items", "enrichment mode: off, items, or bulk")
	runCmd.Flags().StringSliceVar(&runQueries, "query", nil, "override configured search queries")
	rootCmd.AddCommand(runCmd)
}

func httpClientWithTimeout(secs int) *http.Client {
	return &http.Client{Timeout: time.Duration(secs) * time.Second}
}
