// Package model holds the wire and derived record types shared across the
// pipeline. Listings are owned by the marketplace source and treated as
// read-only for the duration of a run.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Money is a currency amount as carried on the wire. Value is the decimal
// string the Browse API emits, not a parsed number.
type Money struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Float parses the amount. Returns nil when the value is absent or not a
// parseable decimal.
func (m *Money) Float() *float64 {
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m.Value), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ShippingOption is a single shipping choice on a listing.
type ShippingOption struct {
	ShippingCost *Money `json:"shippingCost"`
}

// Seller carries seller reputation. FeedbackPercentage arrives as a string.
type Seller struct {
	Username           string `json:"username"`
	FeedbackPercentage string `json:"feedbackPercentage"`
	FeedbackScore      *int   `json:"feedbackScore"`
}

// FeedbackPct parses the feedback percentage, nil when absent or malformed.
func (s *Seller) FeedbackPct() *float64 {
	if s == nil || s.FeedbackPercentage == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.FeedbackPercentage), 64)
	if err != nil {
		return nil
	}
	return &v
}

// ReturnTerms carries the listing's return policy.
type ReturnTerms struct {
	ReturnsAccepted *bool `json:"returnsAccepted"`
}

// Image is a single listing image reference.
type Image struct {
	ImageURL string `json:"imageUrl"`
}

// Listing is a marketplace item record. Every field is optional on the wire
// except ItemID.
type Listing struct {
	ItemID               string           `json:"itemId"`
	Title                string           `json:"title"`
	ShortDescription     string           `json:"shortDescription"`
	Condition            string           `json:"condition"`
	ConditionID          string           `json:"conditionId"`
	ConditionDescription string           `json:"conditionDescription"`
	ItemWebURL           string           `json:"itemWebUrl"`
	ListingType          string           `json:"listingType"`
	BuyingOptions        []string         `json:"buyingOptions"`
	Price                *Money           `json:"price"`
	ShippingOptions      []ShippingOption `json:"shippingOptions"`
	Seller               *Seller          `json:"seller"`
	ReturnTerms          *ReturnTerms     `json:"returnTerms"`
	Image                *Image           `json:"image"`
	AdditionalImages     []Image          `json:"additionalImages"`

	// Raw is the wire payload this listing was decoded from, retained so
	// the raw log can preserve fields the struct does not model.
	Raw json.RawMessage `json:"-"`
}

// ReturnsAccepted reports the explicit return-policy flag, nil when the
// listing does not state one.
func (l *Listing) ReturnsAccepted() *bool {
	if l.ReturnTerms == nil {
		return nil
	}
	return l.ReturnTerms.ReturnsAccepted
}

// ImageURLs returns the primary image followed by additional images, with
// duplicates removed preserving first occurrence, capped at 5 entries.
func (l *Listing) ImageURLs() []string {
	var urls []string
	if l.Image != nil && l.Image.ImageURL != "" {
		urls = append(urls, l.Image.ImageURL)
	}
	for _, img := range l.AdditionalImages {
		if img.ImageURL != "" {
			urls = append(urls, img.ImageURL)
		}
	}

	seen := make(map[string]struct{}, len(urls))
	deduped := urls[:0]
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		deduped = append(deduped, u)
	}
	if len(deduped) > 5 {
		deduped = deduped[:5]
	}
	return deduped
}

// Currency returns the listing price currency, empty when unpriced.
func (l *Listing) Currency() string {
	if l.Price == nil {
		return ""
	}
	return l.Price.Currency
}
