package category

import "context"

// Repository reads the category names in use by the catalog. Categories are
// free-form labels on products, not separate records.
type Repository interface {
	ListNames(ctx context.Context) ([]string, error)
}
