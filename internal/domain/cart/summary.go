// internal/domain/cart/summary.go
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/sweets-storefront/internal/infrastructure/commerce"
)

// Summary holds display aggregates. Prices are never authoritative here.
type Summary struct {
	Lines     int             `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
	Savings   decimal.Decimal `json:"savings"`
}

// Summarize computes display totals over carts. The server's discounted
// total wins over the line sum whenever it is present.
func Summarize(carts []commerce.Cart) Summary {
	s := Summary{
		Subtotal: decimal.Zero,
		Total:    decimal.Zero,
		Savings:  decimal.Zero,
	}

	for _, c := range carts {
		lineTotal := decimal.Zero
		for _, li := range c.Items {
			count := decimal.NewFromInt(int64(li.Count))
			s.Lines++
			s.ItemCount += li.Count
			s.Subtotal = s.Subtotal.Add(li.Price.Mul(count))
			lineTotal = lineTotal.Add(effectivePrice(li).Mul(count))
		}
		if c.DiscountedTotal.IsPositive() {
			lineTotal = c.DiscountedTotal
		}
		s.Total = s.Total.Add(lineTotal)
	}

	if s.Subtotal.GreaterThan(s.Total) {
		s.Savings = s.Subtotal.Sub(s.Total)
	}
	return s
}

func effectivePrice(li commerce.LineItem) decimal.Decimal {
	if li.DiscountedPrice.IsPositive() && li.DiscountedPrice.LessThan(li.Price) {
		return li.DiscountedPrice
	}
	return li.Price
}
