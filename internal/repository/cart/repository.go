package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores one cart per user. Every mutation recomputes the cart
// total and returns the cart as persisted. Product summaries are not
// populated here.
type Repository interface {
	// GetByUser returns domain.ErrNotFound when the user has no cart yet.
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	// AddLine creates the cart on first use. A line for the same product is
	// merged by summing quantities and keeps its captured price. A merged
	// quantity above domain.MaxLineQuantity is a *domain.ValidationError.
	AddLine(ctx context.Context, userID string, line domain.CartLine) (*domain.Cart, error)
	// SetQuantity returns domain.ErrNotFound when the line is absent.
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	// RemoveLine returns domain.ErrNotFound when the line is absent.
	RemoveLine(ctx context.Context, userID, productID string) (*domain.Cart, error)
	// Clear drops every line. Clearing a missing cart is not an error.
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
	// RemoveOrdered subtracts the ordered quantities from the cart, dropping
	// lines that reach zero. Lines added after the order was snapshotted are
	// kept. A missing cart is not an error.
	RemoveOrdered(ctx context.Context, userID string, ordered []domain.CartLine) (*domain.Cart, error)
}
