package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"storefront/internal/domain"
)

type Service struct {
	repo        cartRepo
	productRepo productRepo
	logger      *log.Logger
}

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	AddLine(ctx context.Context, userID string, line domain.CartLine) (*domain.Cart, error)
	SetQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveLine(ctx context.Context, userID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

func New(repo cartRepo, productRepo productRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, productRepo: productRepo, logger: logger}
}

type AddInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

// Get returns the user's cart, or an unsaved empty cart when none exists.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.EmptyCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

// Add puts a product in the cart at its current price, merging with an
// existing line for the same product. Stock is not checked here; a merge
// past MaxLineQuantity is rejected by the repository.
func (s *Service) Add(ctx context.Context, userID string, in AddInput) (*domain.Cart, error) {
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return nil, domain.NewValidationError("productId is required")
	}
	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, &domain.ProductUnavailableError{ProductID: product.ID, Name: product.Name}
	}

	cart, err := s.repo.AddLine(ctx, userID, domain.CartLine{
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     product.Price,
		AddedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("cart: add user=%s product=%s qty=%d", userID, product.ID, quantity)
	return s.populate(ctx, cart)
}

// UpdateQuantity sets the quantity of an existing line.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	cart, err := s.repo.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

func (s *Service) Remove(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	cart, err := s.repo.RemoveLine(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

func (s *Service) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.Clear(ctx, userID)
}

// populate attaches current product summaries to each line. Lines whose
// product no longer exists keep a nil summary.
func (s *Service) populate(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	if cart.IsEmpty() {
		if cart.Lines == nil {
			cart.Lines = []domain.CartLine{}
		}
		return cart, nil
	}
	ids := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for i := range cart.Lines {
		if p, ok := byID[cart.Lines[i].ProductID]; ok {
			cart.Lines[i].Product = p.Summary()
		}
	}
	return cart, nil
}
