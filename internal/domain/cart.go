package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 10000

type Cart struct {
	ID        string          `json:"id,omitempty"`
	UserID    string          `json:"user"`
	Lines     []CartLine      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CartLine holds the unit price captured when the product was added.
type CartLine struct {
	ProductID string          `json:"productId"`
	Product   *ProductSummary `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	AddedAt   time.Time       `json:"addedAt"`
}

// Subtotal returns price × quantity for the line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Recalculate recomputes Total from the lines. Call before every persist.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	c.Total = RoundMoney(total)
}

// Line returns the index of the line for productID, or -1.
func (c *Cart) Line(productID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Lines) == 0
}

// EmptyCart is the representation returned for users who never added anything.
func EmptyCart(userID string) *Cart {
	return &Cart{UserID: userID, Lines: []CartLine{}, Total: decimal.Zero}
}

// ValidateQuantity checks a line quantity is within 1..MaxLineQuantity.
func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return NewValidationError("quantity must be at least 1")
	}
	if quantity > MaxLineQuantity {
		return NewValidationError("quantity must be at most %d", MaxLineQuantity)
	}
	return nil
}
