package enrich

import (
	"encoding/json"
	"fmt"

	"github.com/flipscout/flipscout/internal/model"
)

// listingPayload is the listing view embedded in a per-item prompt.
type listingPayload struct {
	ItemID               string                 `json:"itemId"`
	Title                string                 `json:"title"`
	ShortDescription     string                 `json:"shortDescription,omitempty"`
	Condition            string                 `json:"condition,omitempty"`
	ConditionID          string                 `json:"conditionId,omitempty"`
	ConditionDescription string                 `json:"conditionDescription,omitempty"`
	Price                *model.Money           `json:"price,omitempty"`
	ShippingOptions      []model.ShippingOption `json:"shippingOptions,omitempty"`
	Seller               *model.Seller          `json:"seller,omitempty"`
	ItemWebURL           string                 `json:"itemWebUrl,omitempty"`
	BuyingOptions        []string               `json:"buyingOptions,omitempty"`
	Images               []string               `json:"images"`
	AllInCost            *float64               `json:"all_in_cost"`
	Currency             string                 `json:"currency"`
}

// bulkListingPayload is the compact listing view embedded in a bulk prompt,
// one entry per candidate.
type bulkListingPayload struct {
	ItemID               string   `json:"itemId"`
	Title                string   `json:"title"`
	Condition            string   `json:"condition,omitempty"`
	ConditionID          string   `json:"conditionId,omitempty"`
	AllInCost            *float64 `json:"all_in_cost"`
	Currency             string   `json:"currency"`
	SellerFeedbackPct    *float64 `json:"seller_feedback_pct"`
	SellerFeedbackScore  *int     `json:"seller_feedback_score"`
	ReturnsAccepted      *bool    `json:"returns_accepted"`
	ScoreTotal           float64  `json:"score_total"`
	ShortDescription     string   `json:"shortDescription,omitempty"`
	ConditionDescription string   `json:"conditionDescription,omitempty"`
	ImageURL             string   `json:"image_url,omitempty"`
	ItemWebURL           string   `json:"itemWebUrl,omitempty"`
}

func newListingPayload(l *model.Listing, row *model.CandidateRow) listingPayload {
	return listingPayload{
		ItemID:               l.ItemID,
		Title:                l.Title,
		ShortDescription:     l.ShortDescription,
		Condition:            l.Condition,
		ConditionID:          l.ConditionID,
		ConditionDescription: l.ConditionDescription,
		Price:                l.Price,
		ShippingOptions:      l.ShippingOptions,
		Seller:               l.Seller,
		ItemWebURL:           l.ItemWebURL,
		BuyingOptions:        l.BuyingOptions,
		Images:               l.ImageURLs(),
		AllInCost:            row.AllInCost,
		Currency:             row.Currency,
	}
}

func newBulkListingPayload(l *model.Listing, row *model.CandidateRow) bulkListingPayload {
	return bulkListingPayload{
		ItemID:               row.ItemID,
		Title:                row.Title,
		Condition:            row.Condition,
		ConditionID:          row.ConditionID,
		AllInCost:            row.AllInCost,
		Currency:             row.Currency,
		SellerFeedbackPct:    row.SellerFeedbackPct,
		SellerFeedbackScore:  row.SellerFeedback,
		ReturnsAccepted:      row.ReturnsAccepted,
		ScoreTotal:           row.ScoreTotal,
		ShortDescription:     l.ShortDescription,
		ConditionDescription: l.ConditionDescription,
		ImageURL:             row.ImageURL,
		ItemWebURL:           row.ItemWebURL,
	}
}

// analysisPrompt builds the per-item prompt. The model must answer with a
// bare JSON object in the fixed analysis schema.
func analysisPrompt(payload listingPayload) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"You are a watch flipping analyst. Given this eBay listing JSON, estimate if it is a good flip. "+
			"Use listing text and image URLs as inputs. Respond with strict JSON only with keys: "+
			"flip_candidate (boolean), equivalent_sale_price (number), sell_ease (one of: high|medium|low), "+
			"needed_parts (array of strings), parts_cost_estimate (number), confidence (0-1 number), summary (string). "+
			"Base equivalent_sale_price on likely sold comps for an equivalent working watch, conservative estimate. "+
			"If uncertain, lower confidence and explain in summary.\n\nLISTING_JSON:\n%s",
		encoded,
	), nil
}

// bulkAnalysisPrompt builds the single whole-batch prompt. The model must
// echo every itemId back inside an "analyses" array.
func bulkAnalysisPrompt(payloads []bulkListingPayload) (string, error) {
	encoded, err := json.Marshal(payloads)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"You are a watch flipping analyst. Analyze ALL listings in the JSON array. "+
			"Return strict JSON only in this shape: "+
			`{"analyses":[{"itemId":"...","flip_candidate":true|false,"equivalent_sale_price":number,`+
			`"sell_ease":"high|medium|low","needed_parts":["..."],"parts_cost_estimate":number,`+
			`"confidence":number,"summary":"...","all_in_cost":number}]} `+
			"Do not omit any itemId from input. Be concise and conservative.\n\nLISTINGS_JSON:\n%s",
		encoded,
	), nil
}
