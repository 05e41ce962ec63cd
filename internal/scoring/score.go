// Package scoring ranks listings for resale potential. Scoring is a pure
// function of the listing and thresholds so identical inputs always produce
// identical scores and reason tags.
package scoring

import (
	"math"
	"strings"

	"github.com/flipscout/flipscout/internal/model"
)

// Reason tag prefixes and fixed tags emitted by Score.
const (
	ReasonConditionForParts    = "condition:for_parts"
	ReasonHighFeedbackPct      = "seller:high_feedback_pct"
	ReasonLowFeedbackPct       = "seller:low_feedback_pct"
	ReasonMissingFeedbackPct   = "seller:missing_feedback_pct"
	ReasonHighFeedbackScore    = "seller:high_feedback_score"
	ReasonLowFeedbackScore     = "seller:low_feedback_score"
	ReasonMissingFeedbackScore = "seller:missing_feedback_score"
	ReasonReturnsAccepted      = "returns:accepted"
	ReasonReturnsNotAccepted   = "returns:not_accepted"
	ReasonPriceUnder100        = "price:<=100"
	ReasonPriceUnder200        = "price:<=200"
	ReasonPriceOver300         = "price:>300"
)

// conditionIDForParts is the marketplace sentinel for "for parts or not
// working" listings.
const conditionIDForParts = "7000"

type keywordRule struct {
	keyword string
	weight  float64
}

// keywordRules maps distress keywords to score weights. Order is fixed so
// reason lists are stable across runs.
var keywordRules = []keywordRule{
	{"not working", 12},
	{"for parts", 10},
	{"repair", 8},
	{"untested", 8},
	{"as is", 6},
	{"needs battery", 6},
	{"unknown", 4},
}

// Result is an immutable score with the ordered reason tags that produced it.
type Result struct {
	Score   float64
	Reasons []string
}

// Score evaluates a listing against the keyword table, condition sentinel,
// seller thresholds, return policy, and all-in-cost bands. Missing seller
// values emit a missing-reason tag and contribute nothing; an unparseable
// price skips cost-band scoring entirely. The score is rounded to 2 decimals.
func Score(l *model.Listing, minFeedbackPct float64, minFeedbackScore int) Result {
	var reasons []string
	score := 0.0

	normalized := normalizeText(l.Title, l.ShortDescription, l.ConditionDescription)
	for _, rule := range keywordRules {
		if strings.Contains(normalized, rule.keyword) {
			score += rule.weight
			reasons = append(reasons, "keyword:"+rule.keyword)
		}
	}

	if l.ConditionID == conditionIDForParts {
		score += 10
		reasons = append(reasons, ReasonConditionForParts)
	}

	if pct := l.Seller.FeedbackPct(); pct != nil {
		if *pct >= minFeedbackPct {
			score += 5
			reasons = append(reasons, ReasonHighFeedbackPct)
		} else {
			score -= 8
			reasons = append(reasons, ReasonLowFeedbackPct)
		}
	} else {
		reasons = append(reasons, ReasonMissingFeedbackPct)
	}

	if l.Seller != nil && l.Seller.FeedbackScore != nil {
		if *l.Seller.FeedbackScore >= minFeedbackScore {
			score += 5
			reasons = append(reasons, ReasonHighFeedbackScore)
		} else {
			score -= 6
			reasons = append(reasons, ReasonLowFeedbackScore)
		}
	} else {
		reasons = append(reasons, ReasonMissingFeedbackScore)
	}

	if accepted := l.ReturnsAccepted(); accepted != nil {
		if *accepted {
			score += 4
			reasons = append(reasons, ReasonReturnsAccepted)
		} else {
			score -= 4
			reasons = append(reasons, ReasonReturnsNotAccepted)
		}
	}

	if allIn := model.ExtractPricing(l).AllInCost; allIn != nil {
		switch {
		case *allIn <= 100:
			score += 4
			reasons = append(reasons, ReasonPriceUnder100)
		case *allIn <= 200:
			score += 2
			reasons = append(reasons, ReasonPriceUnder200)
		case *allIn > 300:
			score -= 3
			reasons = append(reasons, ReasonPriceOver300)
		}
	}

	return Result{Score: round2(score), Reasons: reasons}
}

func normalizeText(values ...string) string {
	var parts []string
	for _, v := range values {
		if v != "" {
			parts = append(parts, strings.ToLower(v))
		}
	}
	return strings.Join(parts, " ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
