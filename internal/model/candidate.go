package model

import (
	"strings"
	"time"
)

// CandidateRow is the flattened per-listing output record for one run.
// Rows across runs are independent; nothing updates a row in place.
type CandidateRow struct {
	RunTimestamp      string   `csv:"run_timestamp" json:"run_timestamp"`
	ItemID            string   `csv:"itemId" json:"itemId"`
	Title             string   `csv:"title" json:"title"`
	ItemWebURL        string   `csv:"itemWebUrl" json:"itemWebUrl"`
	PriceValue        *float64 `csv:"price_value" json:"price_value"`
	ShippingValue     *float64 `csv:"shipping_value" json:"shipping_value"`
	AllInCost         *float64 `csv:"all_in_cost" json:"all_in_cost"`
	Currency          string   `csv:"currency" json:"currency"`
	Condition         string   `csv:"condition" json:"condition"`
	ConditionID       string   `csv:"conditionId" json:"conditionId"`
	ListingType       string   `csv:"listingType" json:"listingType"`
	BuyingOptions     string   `csv:"buyingOptions" json:"buyingOptions"`
	ImageURL          string   `csv:"image_url" json:"image_url"`
	SellerUsername    string   `csv:"seller_username" json:"seller_username"`
	SellerFeedbackPct *float64 `csv:"seller_feedback_pct" json:"seller_feedback_pct"`
	SellerFeedback    *int     `csv:"seller_feedback_score" json:"seller_feedback_score"`
	ReturnsAccepted   *bool    `csv:"returns_accepted" json:"returns_accepted"`
	ScoreTotal        float64  `csv:"score_total" json:"score_total"`
	ScoreReasons      string   `csv:"score_reasons" json:"score_reasons"`
}

// BuildCandidateRow flattens a listing and its score into a CandidateRow.
func BuildCandidateRow(l *Listing, score float64, reasons []string, runTS time.Time) CandidateRow {
	pricing := ExtractPricing(l)

	var imageURL string
	if l.Image != nil {
		imageURL = l.Image.ImageURL
	}
	var username string
	if l.Seller != nil {
		username = l.Seller.Username
	}
	var feedbackScore *int
	if l.Seller != nil {
		feedbackScore = l.Seller.FeedbackScore
	}

	return CandidateRow{
		RunTimestamp:      runTS.UTC().Format(time.RFC3339),
		ItemID:            l.ItemID,
		Title:             l.Title,
		ItemWebURL:        l.ItemWebURL,
		PriceValue:        pricing.PriceValue,
		ShippingValue:     pricing.ShippingValue,
		AllInCost:         pricing.AllInCost,
		Currency:          l.Currency(),
		Condition:         l.Condition,
		ConditionID:       l.ConditionID,
		ListingType:       l.ListingType,
		BuyingOptions:     strings.Join(l.BuyingOptions, "|"),
		ImageURL:          imageURL,
		SellerUsername:    username,
		SellerFeedbackPct: l.Seller.FeedbackPct(),
		SellerFeedback:    feedbackScore,
		ReturnsAccepted:   l.ReturnsAccepted(),
		ScoreTotal:        score,
		ScoreReasons:      strings.Join(reasons, ";"),
	}
}
