// Package output ranks candidate batches and writes the run artifacts:
// the ranked CSV and the raw listing JSONL append log.
package output

import (
	"sort"

	"github.com/flipscout/flipscout/internal/enrich"
	"github.com/flipscout/flipscout/internal/model"
)

// EnrichedRow is a candidate row merged with its analysis result, one CSV
// record per listing.
type EnrichedRow struct {
	model.CandidateRow
	enrich.Analysis
}

// RankCandidates orders an un-enriched batch: score descending, then all-in
// cost ascending with unpriced rows last. Stable so equal rows keep
// discovery order.
func RankCandidates(rows []model.CandidateRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ScoreTotal != rows[j].ScoreTotal {
			return rows[i].ScoreTotal > rows[j].ScoreTotal
		}
		return lessFloatPtr(rows[i].AllInCost, rows[j].AllInCost)
	})
}

// RankEnriched orders an enriched batch: estimated profit descending with
// nulls last, then score descending.
func RankEnriched(rows []EnrichedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := rows[i].EstimatedProfit, rows[j].EstimatedProfit
		switch {
		case pi != nil && pj != nil && *pi != *pj:
			return *pi > *pj
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		return rows[i].ScoreTotal > rows[j].ScoreTotal
	})
}

// lessFloatPtr orders ascending with nils last.
func lessFloatPtr(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
