package model

// Pricing is the computed cost breakdown for a listing. AllInCost is
// price + first-listed shipping, with shipping counted as 0 when the
// listing carries none. PriceValue and AllInCost are nil when the price
// is unparseable.
type Pricing struct {
	PriceValue    *float64
	ShippingValue *float64
	AllInCost     *float64
}

// ExtractPricing computes the cost breakdown from a listing's price and
// first shipping option.
func ExtractPricing(l *Listing) Pricing {
	var p Pricing
	if len(l.ShippingOptions) > 0 {
		p.ShippingValue = l.ShippingOptions[0].ShippingCost.Float()
	}
	p.PriceValue = l.Price.Float()
	if p.PriceValue == nil {
		return p
	}
	shipping := 0.0
	if p.ShippingValue != nil {
		shipping = *p.ShippingValue
	}
	allIn := *p.PriceValue + shipping
	p.AllInCost = &allIn
	return p
}
