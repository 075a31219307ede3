package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, matching what the storefront client expects.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundMoney rounds an amount to whole cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
