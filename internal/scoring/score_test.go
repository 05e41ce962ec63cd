package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flipscout/flipscout/internal/model"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func money(v string) *model.Money {
	return &model.Money{Value: v, Currency: "USD"}
}

func TestScore_ForPartsUntested(t *testing.T) {
	l := &model.Listing{
		ItemID:      "v1|123|0",
		Title:       "Watch for parts, untested",
		ConditionID: "7000",
	}

	res := Score(l, 97.5, 50)

	assert.Contains(t, res.Reasons, "keyword:for parts")
	assert.Contains(t, res.Reasons, "keyword:untested")
	assert.Contains(t, res.Reasons, ReasonConditionForParts)
	assert.GreaterOrEqual(t, res.Score, 26.0)
}

func TestScore_Deterministic(t *testing.T) {
	l := &model.Listing{
		Title:                "Vintage watch not working, repair project",
		ShortDescription:     "Sold as is",
		ConditionDescription: "Untested, unknown movement",
		ConditionID:          "7000",
		Price:                money("85.00"),
		Seller: &model.Seller{
			FeedbackPercentage: "99.2",
			FeedbackScore:      intPtr(1200),
		},
		ReturnTerms: &model.ReturnTerms{ReturnsAccepted: boolPtr(true)},
	}

	first := Score(l, 97.5, 50)
	second := Score(l, 97.5, 50)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Reasons, second.Reasons)
}

func TestScore_KeywordWeights(t *testing.T) {
	tests := []struct {
		title  string
		weight float64
		reason string
	}{
		{"clock not working", 12, "keyword:not working"},
		{"sold for parts", 10, "keyword:for parts"},
		{"needs repair", 8, "keyword:repair"},
		{"untested lot", 8, "keyword:untested"},
		{"sold as is", 6, "keyword:as is"},
		{"watch needs battery", 6, "keyword:needs battery"},
		{"unknown brand", 4, "keyword:unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			l := &model.Listing{Title: tt.title}
			res := Score(l, 97.5, 50)
			assert.Contains(t, res.Reasons, tt.reason)
			// Only the missing-seller tags accompany the keyword hit.
			assert.Equal(t, tt.weight, res.Score)
		})
	}
}

func TestScore_CaseInsensitiveMatch(t *testing.T) {
	l := &model.Listing{Title: "FOR PARTS Seiko UNTESTED"}
	res := Score(l, 97.5, 50)
	assert.Contains(t, res.Reasons, "keyword:for parts")
	assert.Contains(t, res.Reasons, "keyword:untested")
}

func TestScore_SellerThresholds(t *testing.T) {
	tests := []struct {
		name    string
		seller  *model.Seller
		delta   float64
		reasons []string
	}{
		{
			name:    "high pct and score",
			seller:  &model.Seller{FeedbackPercentage: "99.0", FeedbackScore: intPtr(100)},
			delta:   10,
			reasons: []string{ReasonHighFeedbackPct, ReasonHighFeedbackScore},
		},
		{
			name:    "low pct and score",
			seller:  &model.Seller{FeedbackPercentage: "90.0", FeedbackScore: intPtr(10)},
			delta:   -14,
			reasons: []string{ReasonLowFeedbackPct, ReasonLowFeedbackScore},
		},
		{
			name:    "missing seller contributes nothing",
			seller:  nil,
			delta:   0,
			reasons: []string{ReasonMissingFeedbackPct, ReasonMissingFeedbackScore},
		},
		{
			name:    "unparseable pct treated as missing",
			seller:  &model.Seller{FeedbackPercentage: "n/a", FeedbackScore: intPtr(100)},
			delta:   5,
			reasons: []string{ReasonMissingFeedbackPct, ReasonHighFeedbackScore},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &model.Listing{Title: "plain listing", Seller: tt.seller}
			res := Score(l, 97.5, 50)
			assert.Equal(t, tt.delta, res.Score)
			for _, r := range tt.reasons {
				assert.Contains(t, res.Reasons, r)
			}
		})
	}
}

func TestScore_ReturnsTernary(t *testing.T) {
	accepted := &model.Listing{ReturnTerms: &model.ReturnTerms{ReturnsAccepted: boolPtr(true)}}
	refused := &model.Listing{ReturnTerms: &model.ReturnTerms{ReturnsAccepted: boolPtr(false)}}
	absent := &model.Listing{}

	assert.Equal(t, 4.0, Score(accepted, 97.5, 50).Score)
	assert.Equal(t, -4.0, Score(refused, 97.5, 50).Score)
	assert.Equal(t, 0.0, Score(absent, 97.5, 50).Score)
}

func TestScore_PriceBands(t *testing.T) {
	tests := []struct {
		name     string
		price    *model.Money
		shipping string
		delta    float64
		reason   string
	}{
		{"cheap", money("80"), "10", 4, ReasonPriceUnder100},
		{"boundary 100", money("100"), "", 4, ReasonPriceUnder100},
		{"mid", money("150"), "20", 2, ReasonPriceUnder200},
		{"unlabeled band", money("250"), "", 0, ""},
		{"expensive", money("290"), "20", -3, ReasonPriceOver300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &model.Listing{Price: tt.price}
			if tt.shipping != "" {
				l.ShippingOptions = []model.ShippingOption{{ShippingCost: money(tt.shipping)}}
			}
			res := Score(l, 97.5, 50)
			assert.Equal(t, tt.delta, res.Score)
			if tt.reason != "" {
				assert.Contains(t, res.Reasons, tt.reason)
			}
		})
	}
}

func TestScore_UnparseablePriceSkipsBands(t *testing.T) {
	l := &model.Listing{Price: &model.Money{Value: "call for price"}}
	res := Score(l, 97.5, 50)

	assert.Equal(t, 0.0, res.Score)
	for _, r := range res.Reasons {
		assert.NotContains(t, r, "price:")
	}
}

func TestScore_RoundsToTwoDecimals(t *testing.T) {
	l := &model.Listing{Title: "for parts untested repair"}
	res := Score(l, 97.5, 50)
	assert.Equal(t, 26.0, res.Score)
}
