// internal/domain/product/pricing.go
package product

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

// Pricing is the price display for a product card or detail page
type Pricing struct {
	HasVariants bool `json:"has_variants"`
	// MinPrice and MaxPrice are effective (discounted) prices across variants
	MinPrice decimal.Decimal `json:"min_price"`
	MaxPrice decimal.Decimal `json:"max_price"`
	// OriginalPrice is the undiscounted price of the cheapest variant
	OriginalPrice   decimal.Decimal `json:"original_price"`
	Discounted      bool            `json:"discounted"`
	DiscountPercent int64           `json:"discount_percent"`
}

// PriceOf computes display pricing from the product and its variants
func PriceOf(p *commerce.Product) Pricing {
	if len(p.Items) == 0 {
		eff := effective(p.Price, p.DiscountedPrice)
		return finish(Pricing{MinPrice: eff, MaxPrice: eff, OriginalPrice: p.Price})
	}

	first := p.Items[0]
	pr := Pricing{
		HasVariants:   true,
		MinPrice:      effective(first.Price, first.DiscountedPrice),
		OriginalPrice: first.Price,
	}
	pr.MaxPrice = pr.MinPrice

	for _, it := range p.Items[1:] {
		eff := effective(it.Price, it.DiscountedPrice)
		if eff.LessThan(pr.MinPrice) {
			pr.MinPrice = eff
			pr.OriginalPrice = it.Price
		}
		if eff.GreaterThan(pr.MaxPrice) {
			pr.MaxPrice = eff
		}
	}
	return finish(pr)
}

func finish(pr Pricing) Pricing {
	if pr.OriginalPrice.IsPositive() && pr.MinPrice.LessThan(pr.OriginalPrice) {
		pr.Discounted = true
		pr.DiscountPercent = pr.OriginalPrice.Sub(pr.MinPrice).
			Div(pr.OriginalPrice).
			Mul(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	}
	return pr
}

// effective is the discounted price when one is set and lower, else the price
func effective(price, discounted decimal.Decimal) decimal.Decimal {
	if discounted.IsPositive() && discounted.LessThan(price) {
		return discounted
	}
	return price
}
