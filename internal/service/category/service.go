package category

import (
	"context"

	"storefront/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the distinct category names used by the catalog, sorted.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.repo.ListNames(ctx)
}
