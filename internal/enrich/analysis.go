// Package enrich runs model-backed analysis of candidate rows and normalizes
// every provider's output into one fixed schema. A failed analysis is still a
// schema-complete result with Error set, never a propagated failure, so the
// output batch always carries exactly one result per candidate.
package enrich

import (
	"encoding/json"
	"strings"
)

// Error strings assigned by the normalizer. Remote per-item errors supplied by
// the model are preserved as-is and never overwritten with these.
const (
	errNoContent  = "model returned no content"
	errNotJSON    = "model returned non-JSON output"
	errNotCovered = "not covered by bulk analysis response"
	errNoAnalyses = "bulk response missing analyses array"
	errNoProvider = "analysis provider not configured"
)

// Analysis is the normalized result of one listing analysis. The schema is
// identical across providers. Error is non-nil exactly when the result should
// be treated as failed, in which case every other value field is nil.
type Analysis struct {
	Provider            string   `csv:"ai_provider" json:"ai_provider"`
	Model               *string  `csv:"ai_model" json:"ai_model"`
	FlipCandidate       *bool    `csv:"ai_flip_candidate" json:"ai_flip_candidate"`
	EquivalentSalePrice *float64 `csv:"ai_equivalent_sale_price" json:"ai_equivalent_sale_price"`
	SellEase            *string  `csv:"ai_sell_ease" json:"ai_sell_ease"`
	NeededParts         *string  `csv:"ai_needed_parts" json:"ai_needed_parts"`
	PartsCostEstimate   *float64 `csv:"ai_parts_cost_estimate" json:"ai_parts_cost_estimate"`
	Confidence          *float64 `csv:"ai_confidence" json:"ai_confidence"`
	Summary             *string  `csv:"ai_summary" json:"ai_summary"`
	EstimatedProfit     *float64 `csv:"ai_estimated_profit" json:"ai_estimated_profit"`
	Error               *string  `csv:"ai_error" json:"ai_error"`
}

// ErrorResult builds a schema-complete failed Analysis: every value field nil
// and Error set to the given reason.
func ErrorResult(provider, reason string) Analysis {
	return Analysis{
		Provider: provider,
		Error:    &reason,
	}
}

// Normalize reduces a provider's raw text output to an Analysis. Empty output
// and non-JSON output each produce a distinct error result rather than a
// panic or a silently empty success.
func Normalize(raw, provider, model string, allInCost float64) Analysis {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ErrorResult(provider, errNoContent)
	}
	parsed, ok := ParseModelJSON(text)
	if !ok {
		return ErrorResult(provider, errNotJSON)
	}
	return normalizeParsed(parsed, provider, model, allInCost)
}

// ParseModelJSON parses model output as a JSON object, tolerating an optional
// markdown code-fence wrapper. Returns ok=false when the text is not a JSON
// object.
func ParseModelJSON(raw string) (map[string]any, bool) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.Trim(cleaned, "`")
		cleaned = strings.TrimSpace(strings.Replace(cleaned, "json", "", 1))
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// normalizeParsed maps a well-formed parsed object into the fixed schema.
// estimated_profit is derived only when a sale-price estimate is present:
// equivalent_sale_price - all_in_cost - (parts_cost_estimate or 0).
func normalizeParsed(parsed map[string]any, provider, model string, allInCost float64) Analysis {
	salePrice := asFloat(parsed["equivalent_sale_price"])
	partsCost := asFloat(parsed["parts_cost_estimate"])

	var profit *float64
	if salePrice != nil {
		p := *salePrice - allInCost
		if partsCost != nil {
			p -= *partsCost
		}
		profit = &p
	}

	flip := false
	if b, ok := parsed["flip_candidate"].(bool); ok {
		flip = b
	}

	neededParts := joinParts(parsed["needed_parts"])

	return Analysis{
		Provider:            provider,
		Model:               &model,
		FlipCandidate:       &flip,
		EquivalentSalePrice: salePrice,
		SellEase:            asString(parsed["sell_ease"]),
		NeededParts:         &neededParts,
		PartsCostEstimate:   partsCost,
		Confidence:          asFloat(parsed["confidence"]),
		Summary:             asString(parsed["summary"]),
		EstimatedProfit:     profit,
	}
}

// joinParts flattens a parts list to a semicolon-joined string. Anything
// that is not a list collapses to empty.
func joinParts(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	var parts []string
	for _, p := range list {
		if s := asString(p); s != nil && *s != "" {
			parts = append(parts, *s)
		}
	}
	return strings.Join(parts, ";")
}

func asFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		// some models quote numbers
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		var f float64
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func asString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
