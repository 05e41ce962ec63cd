package enrich

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flipscout/flipscout/internal/config"
	"github.com/flipscout/flipscout/internal/model"
	"github.com/flipscout/flipscout/internal/ratelimit"
	"github.com/flipscout/flipscout/pkg/anthropic"
	"github.com/flipscout/flipscout/pkg/gemini"
	"github.com/flipscout/flipscout/pkg/openai"
)

// BulkEntry pairs a listing with its candidate row for bulk analysis.
type BulkEntry struct {
	Listing *model.Listing
	Row     *model.CandidateRow
}

// Enricher runs listing analysis against the configured provider. All
// outbound analysis requests, per-item and bulk alike, pace through the one
// shared rate limiter the Enricher was constructed with.
type Enricher struct {
	pacer *ratelimit.Pacer

	provider  string
	extractor TextExtractor // nil when per-item analysis cannot run
	disabled  string        // reason, set iff extractor is nil

	bulk      gemini.Client // nil when bulk analysis cannot run
	bulkModel string
	bulkErr   error // reason, set iff bulk is nil
}

// Option overrides a constructed collaborator. Used in tests.
type Option func(*Enricher)

// WithExtractor replaces the provider-built extractor.
func WithExtractor(x TextExtractor) Option {
	return func(e *Enricher) {
		e.extractor = x
		e.provider = x.Provider()
		e.disabled = ""
	}
}

// WithBulkClient replaces the bulk analysis client.
func WithBulkClient(c gemini.Client, model string) Option {
	return func(e *Enricher) {
		e.bulk = c
		e.bulkModel = model
		e.bulkErr = nil
	}
}

// New builds an Enricher for the configured provider. A missing API key or an
// unknown provider does not fail construction: per-item analysis degrades to
// error results and bulk analysis reports a configuration error when invoked.
func New(cfg config.AIConfig, pacer *ratelimit.Pacer, opts ...Option) *Enricher {
	e := &Enricher{
		pacer:    pacer,
		provider: cfg.Provider,
		bulkErr:  eris.Errorf("bulk analysis requires the gemini provider, have %q", cfg.Provider),
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second

	switch cfg.Provider {
	case "":
		e.provider = "disabled"
		e.disabled = errNoProvider
	case "openai":
		if cfg.OpenAI.Key == "" {
			e.disabled = "openai API key missing"
			break
		}
		e.extractor = &openaiExtractor{
			client: openai.NewClient(cfg.OpenAI.Key,
				openai.WithModel(cfg.OpenAI.Model),
				openai.WithTimeout(timeout),
			),
			model: cfg.OpenAI.Model,
		}
	case "gemini":
		if cfg.Gemini.Key == "" {
			e.disabled = "gemini API key missing"
			e.bulkErr = eris.New("gemini API key missing")
			break
		}
		e.extractor = &geminiExtractor{
			client: gemini.NewClient(cfg.Gemini.Key,
				gemini.WithModel(cfg.Gemini.Model),
				gemini.WithTimeout(timeout),
			),
			model: cfg.Gemini.Model,
		}
		e.bulk = gemini.NewClient(cfg.Gemini.Key,
			gemini.WithModel(cfg.Gemini.Model),
			gemini.WithTimeout(time.Duration(cfg.BulkTimeoutSecs)*time.Second),
		)
		e.bulkModel = cfg.Gemini.Model
		e.bulkErr = nil
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			e.disabled = "anthropic API key missing"
			break
		}
		e.extractor = &anthropicExtractor{
			client: anthropic.NewClient(cfg.Anthropic.Key,
				anthropic.WithTimeout(timeout),
			),
			model: cfg.Anthropic.Model,
		}
	default:
		e.disabled = fmt.Sprintf("unsupported analysis provider %q", cfg.Provider)
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AnalyzeListing runs one per-item analysis. It always returns a
// schema-complete Analysis: transport failures, malformed output, and
// missing configuration all land in the Error field, never an error return.
// A disabled or misconfigured provider short-circuits before the rate
// limiter, without a network call.
func (e *Enricher) AnalyzeListing(ctx context.Context, l *model.Listing, row *model.CandidateRow) Analysis {
	if e.extractor == nil {
		return ErrorResult(e.provider, e.disabled)
	}

	prompt, err := analysisPrompt(newListingPayload(l, row))
	if err != nil {
		return ErrorResult(e.provider, err.Error())
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return ErrorResult(e.provider, err.Error())
	}

	raw, err := e.extractor.Extract(ctx, prompt, l.ImageURLs())
	if err != nil {
		zap.L().Warn("listing analysis failed",
			zap.String("item_id", l.ItemID),
			zap.String("provider", e.provider),
			zap.Error(err),
		)
		return ErrorResult(e.provider, err.Error())
	}

	return Normalize(raw, e.provider, e.extractor.Model(), allInCostOrZero(row))
}

// SupportsBulk reports whether bulk analysis can run with the current
// configuration. Non-nil means any bulk invocation would fail with this
// configuration error; callers should check it before doing work whose
// side effects a failed run cannot undo.
func (e *Enricher) SupportsBulk() error {
	return e.bulkErr
}

// AnalyzeBulk analyzes the whole batch in one request, pacing through the
// rate limiter exactly once. The returned slice always holds exactly one
// Analysis per entry, in entry order; identifiers the model failed to echo
// back are backfilled with error results. The only error returns are
// configuration errors and context cancellation.
func (e *Enricher) AnalyzeBulk(ctx context.Context, entries []BulkEntry) ([]Analysis, error) {
	if e.bulk == nil {
		return nil, e.bulkErr
	}
	if len(entries) == 0 {
		return nil, nil
	}

	payloads := make([]bulkListingPayload, len(entries))
	for i, entry := range entries {
		payloads[i] = newBulkListingPayload(entry.Listing, entry.Row)
	}
	prompt, err := bulkAnalysisPrompt(payloads)
	if err != nil {
		return nil, eris.Wrap(err, "encode bulk analysis prompt")
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := e.bulk.GenerateContent(ctx, prompt)
	if err != nil {
		zap.L().Warn("bulk analysis request failed", zap.Int("candidates", len(entries)), zap.Error(err))
		return e.backfillAll(entries, err.Error()), nil
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return e.backfillAll(entries, errNoContent), nil
	}
	parsed, ok := ParseModelJSON(text)
	if !ok {
		return e.backfillAll(entries, errNotJSON), nil
	}
	analyses, ok := parsed["analyses"].([]any)
	if !ok {
		return e.backfillAll(entries, errNoAnalyses), nil
	}

	byID := make(map[string]Analysis, len(analyses))
	for _, raw := range analyses {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id := stringify(entry["itemId"])
		if id == "" {
			continue
		}

		allInCost := 0.0
		if v := asFloat(entry["all_in_cost"]); v != nil {
			allInCost = *v
		}
		normalized := normalizeParsed(entry, "gemini", e.bulkModel, allInCost)
		// a per-row error from the model supersedes any derived values
		if remote := asString(entry["ai_error"]); remote != nil && *remote != "" {
			normalized = ErrorResult("gemini", *remote)
		}
		byID[id] = normalized
	}

	results := make([]Analysis, len(entries))
	missing := 0
	for i, entry := range entries {
		if a, ok := byID[entry.Row.ItemID]; ok {
			results[i] = a
			continue
		}
		results[i] = ErrorResult("gemini", errNotCovered)
		missing++
	}
	if missing > 0 {
		zap.L().Warn("bulk analysis response incomplete",
			zap.Int("candidates", len(entries)),
			zap.Int("missing", missing),
		)
	}
	return results, nil
}

func (e *Enricher) backfillAll(entries []BulkEntry, reason string) []Analysis {
	results := make([]Analysis, len(entries))
	for i := range entries {
		results[i] = ErrorResult("gemini", reason)
	}
	return results
}

func allInCostOrZero(row *model.CandidateRow) float64 {
	if row.AllInCost == nil {
		return 0
	}
	return *row.AllInCost
}

// stringify renders an echoed identifier. Some models return numeric ids
// as JSON numbers.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}
