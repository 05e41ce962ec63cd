// Package pipeline orchestrates a full discovery run: search fan-in, seen
// filtering, detail fetch, scoring, optional enrichment, and the ranked
// artifact.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flipscout/flipscout/internal/config"
	"github.com/flipscout/flipscout/internal/enrich"
	"github.com/flipscout/flipscout/internal/model"
	"github.com/flipscout/flipscout/internal/output"
	"github.com/flipscout/flipscout/internal/scoring"
	"github.com/flipscout/flipscout/internal/seen"
	"github.com/flipscout/flipscout/pkg/ebay"
)

// EnrichMode selects how candidates are analyzed after scoring.
type EnrichMode string

const (
	// EnrichOff skips analysis entirely.
	EnrichOff EnrichMode = "off"
	// EnrichItems analyzes each candidate with its own request.
	EnrichItems EnrichMode = "items"
	// EnrichBulk analyzes the whole batch in a single request.
	EnrichBulk EnrichMode = "bulk"
)

// ParseEnrichMode validates a mode flag value.
func ParseEnrichMode(s string) (EnrichMode, error) {
	switch EnrichMode(s) {
	case EnrichOff, EnrichItems, EnrichBulk:
		return EnrichMode(s), nil
	}
	return "", eris.Errorf("unknown enrich mode %q (want off, items, or bulk)", s)
}

// Summary reports what a run produced.
type Summary struct {
	RunID      string
	Found      int // summaries returned across all queries, deduped in-run
	Candidates int // new listings scored this run
	Artifact   string
}

// Pipeline wires one run's collaborators together.
type Pipeline struct {
	cfg      *config.Config
	source   ebay.Client
	store    seen.Store
	enricher *enrich.Enricher
	writer   *output.Writer
	now      func() time.Time
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, source ebay.Client, store seen.Store, enricher *enrich.Enricher) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		store:    store,
		enricher: enricher,
		writer:   output.NewWriter(cfg.Output.Dir),
		now:      time.Now,
	}
}

// Run executes a full discovery run. Per-listing detail-fetch failures are
// logged and skipped; search failures and configuration errors abort the
// run before any artifact is written.
func (p *Pipeline) Run(ctx context.Context, mode EnrichMode) (*Summary, error) {
	runID := uuid.NewString()
	runTS := p.now().UTC()
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("pipeline: starting run", zap.String("enrich_mode", string(mode)), zap.Strings("queries", p.cfg.Ebay.Queries))

	// Configuration errors must abort before any listing is marked seen;
	// a marked listing never resurfaces in a later run.
	if mode == EnrichBulk {
		if err := p.enricher.SupportsBulk(); err != nil {
			return nil, eris.Wrap(err, "pipeline: bulk analysis unavailable")
		}
	}

	if err := p.store.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "pipeline: init seen store")
	}

	summaries, err := p.search(ctx, log)
	if err != nil {
		return nil, err
	}
	log.Info("pipeline: search complete", zap.Int("summaries", len(summaries)))

	listings, rows, err := p.collect(ctx, log, summaries, runTS)
	if err != nil {
		return nil, err
	}

	summary := &Summary{RunID: runID, Found: len(summaries), Candidates: len(rows)}
	if len(rows) == 0 {
		log.Info("pipeline: no new candidates")
		return summary, nil
	}

	artifact, err := p.finish(ctx, log, mode, runID, listings, rows)
	if err != nil {
		return nil, err
	}
	summary.Artifact = artifact
	log.Info("pipeline: run complete", zap.Int("candidates", len(rows)), zap.String("artifact", artifact))
	return summary, nil
}

// search fans in summaries across all configured queries, deduplicating
// identifiers within the run while preserving first-seen order.
func (p *Pipeline) search(ctx context.Context, log *zap.Logger) ([]model.Listing, error) {
	filter := ebay.SearchFilter(p.cfg.Ebay.MaxPrice)

	inRun := make(map[string]struct{})
	var items []model.Listing
	for _, query := range p.cfg.Ebay.Queries {
		log.Info("pipeline: searching", zap.String("query", query))
		resp, err := p.source.SearchItems(ctx, ebay.SearchRequest{
			Query:       query,
			CategoryIDs: p.cfg.Ebay.CategoryID,
			Filter:      filter,
			Limit:       p.cfg.Ebay.Limit,
			Sort:        "newlyListed",
		})
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: search %q", query)
		}
		for _, item := range resp.ItemSummaries {
			if item.ItemID == "" {
				continue
			}
			if _, ok := inRun[item.ItemID]; ok {
				continue
			}
			inRun[item.ItemID] = struct{}{}
			items = append(items, item)
		}
	}
	return items, nil
}

// collect filters already-seen listings, fetches full detail records,
// scores them, and marks them seen. A detail-fetch failure skips the row.
func (p *Pipeline) collect(ctx context.Context, log *zap.Logger, summaries []model.Listing, runTS time.Time) ([]*model.Listing, []model.CandidateRow, error) {
	rawLog, err := output.OpenRawLog(filepath.Join(p.cfg.Output.Dir, "raw.jsonl"))
	if err != nil {
		return nil, nil, err
	}
	defer rawLog.Close()

	var listings []*model.Listing
	var rows []model.CandidateRow
	for i := range summaries {
		itemID := summaries[i].ItemID

		seenBefore, err := p.store.Has(ctx, itemID)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "pipeline: seen lookup %s", itemID)
		}
		if seenBefore {
			continue
		}

		listing, err := p.source.GetItem(ctx, itemID)
		if err != nil {
			log.Error("pipeline: item fetch failed", zap.String("item_id", itemID), zap.Error(err))
			continue
		}
		// prefer the wire payload so unmodeled fields survive in the log
		if len(listing.Raw) > 0 {
			err = rawLog.AppendRaw(listing.Raw)
		} else {
			err = rawLog.Append(listing)
		}
		if err != nil {
			return nil, nil, err
		}

		result := scoring.Score(listing, p.cfg.Scoring.MinFeedbackPct, p.cfg.Scoring.MinFeedbackScore)
		row := model.BuildCandidateRow(listing, result.Score, result.Reasons, runTS)

		if _, err := p.store.Mark(ctx, itemID, runTS); err != nil {
			return nil, nil, eris.Wrapf(err, "pipeline: mark seen %s", itemID)
		}

		listings = append(listings, listing)
		rows = append(rows, row)
	}
	return listings, rows, nil
}

// finish enriches (per the mode), ranks, and writes the batch artifact.
func (p *Pipeline) finish(ctx context.Context, log *zap.Logger, mode EnrichMode, runID string, listings []*model.Listing, rows []model.CandidateRow) (string, error) {
	if mode == EnrichOff {
		output.RankCandidates(rows)
		path, err := p.writer.WriteCandidates(runID, rows)
		if err != nil {
			return "", err
		}
		return path, nil
	}

	analyses, err := p.analyze(ctx, log, mode, listings, rows)
	if err != nil {
		return "", err
	}

	enrichedRows := make([]output.EnrichedRow, len(rows))
	for i := range rows {
		enrichedRows[i] = output.EnrichedRow{CandidateRow: rows[i], Analysis: analyses[i]}
	}
	output.RankEnriched(enrichedRows)
	path, err := p.writer.WriteEnriched(runID, enrichedRows)
	if err != nil {
		return "", err
	}
	return path, nil
}

func (p *Pipeline) analyze(ctx context.Context, log *zap.Logger, mode EnrichMode, listings []*model.Listing, rows []model.CandidateRow) ([]enrich.Analysis, error) {
	if mode == EnrichBulk {
		entries := make([]enrich.BulkEntry, len(rows))
		for i := range rows {
			entries[i] = enrich.BulkEntry{Listing: listings[i], Row: &rows[i]}
		}
		analyses, err := p.enricher.AnalyzeBulk(ctx, entries)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: bulk analysis")
		}
		return analyses, nil
	}

	analyses := make([]enrich.Analysis, len(rows))
	for i := range rows {
		log.Info("pipeline: analyzing candidate",
			zap.String("item_id", rows[i].ItemID),
			zap.Int("index", i+1),
			zap.Int("total", len(rows)),
		)
		analyses[i] = p.enricher.AnalyzeListing(ctx, listings[i], &rows[i])
	}
	return analyses, nil
}
