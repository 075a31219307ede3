package order

import (
	"storefront/internal/config"
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// Totals is the price breakdown frozen into an order.
type Totals struct {
	Items    decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals prices items from their captured unit prices. Shipping is
// free strictly above the threshold.
func ComputeTotals(items []domain.OrderItem, p config.Pricing) Totals {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	sum = domain.RoundMoney(sum)

	shipping := p.FlatShipping
	if sum.GreaterThan(p.FreeShippingOver) {
		shipping = decimal.Zero
	}
	tax := domain.RoundMoney(sum.Mul(p.TaxRate))
	return Totals{
		Items:    sum,
		Tax:      tax,
		Shipping: shipping,
		Total:    domain.RoundMoney(sum.Add(tax).Add(shipping)),
	}
}
