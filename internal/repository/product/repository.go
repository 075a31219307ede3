package product

import (
	"context"

	"storefront/internal/domain"
)

// ListFilter narrows a catalog listing. Empty fields do not filter.
type ListFilter struct {
	Search   string
	Category string
	Offset   int
	Limit    int
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, int, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
