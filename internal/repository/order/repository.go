package order

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// Place decrements stock for every item and inserts the order in one
	// transaction. On *domain.ProductUnavailableError or
	// *domain.InsufficientStockError nothing is written.
	Place(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	MarkPaid(ctx context.Context, id string, result *domain.PaymentResult) (*domain.Order, error)
	MarkDelivered(ctx context.Context, id string) (*domain.Order, error)
}
