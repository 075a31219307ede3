package product

import (
	"context"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"

	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// ListQuery is the public catalog query. Page is 1-based.
type ListQuery struct {
	Search   string
	Category string
	Page     int
	PageSize int
}

type ListResult struct {
	Products []domain.Product `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
	Total    int              `json:"total"`
}

// Input carries admin product fields. Nil or blank fields are left unchanged
// on update and defaulted on create.
type Input struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Stock       *int
	Category    string
	Image       string
	IsActive    *bool
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	switch {
	case size < 1:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}

	products, total, err := s.repo.List(ctx, productrepo.ListFilter{
		Search:   q.Search,
		Category: q.Category,
		Offset:   (page - 1) * size,
		Limit:    size,
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return &ListResult{
		Products: products,
		Page:     page,
		Pages:    (total + size - 1) / size,
		Total:    total,
	}, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Product, error) {
	p := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Image:       strings.TrimSpace(in.Image),
		IsActive:    true,
	}
	if p.Name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if p.Category == "" {
		return nil, domain.NewValidationError("category is required")
	}
	if in.Price == nil {
		return nil, domain.NewValidationError("price is required")
	}
	p.Price = *in.Price
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if p.Image == "" {
		p.Image = domain.PlaceholderImage
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		p.Description = v
	}
	if v := strings.TrimSpace(in.Category); v != "" {
		p.Category = v
	}
	if v := strings.TrimSpace(in.Image); v != "" {
		p.Image = v
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := validate(*p); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, *p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func validate(p domain.Product) error {
	if p.Price.IsNegative() {
		return domain.NewValidationError("price must be zero or more")
	}
	if p.Stock < 0 {
		return domain.NewValidationError("stock must be zero or more")
	}
	return nil
}
