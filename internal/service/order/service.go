package order

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/idempotency"
)

type Service struct {
	orders   orderRepo
	carts    cartRepo
	products productRepo
	keys     idempotencyStore
	pricing  config.Pricing
	logger   *log.Logger
}

type orderRepo interface {
	Place(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	MarkPaid(ctx context.Context, id string, result *domain.PaymentResult) (*domain.Order, error)
	MarkDelivered(ctx context.Context, id string) (*domain.Order, error)
}

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	RemoveOrdered(ctx context.Context, userID string, ordered []domain.CartLine) (*domain.Cart, error)
}

type productRepo interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

type idempotencyStore interface {
	Reserve(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, result string) error
	Release(ctx context.Context, key string) error
}

func New(orders orderRepo, carts cartRepo, products productRepo, pricing config.Pricing, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{orders: orders, carts: carts, products: products, pricing: pricing, logger: logger}
}

// UseIdempotency enables Idempotency-Key handling for Checkout.
func (s *Service) UseIdempotency(store idempotencyStore) {
	s.keys = store
}

type CheckoutInput struct {
	ShippingAddress ShippingAddressInput `json:"shippingAddress" binding:"required"`
	PaymentMethod   string               `json:"paymentMethod" binding:"required"`
}

type ShippingAddressInput struct {
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// PaymentInput is the confirmation posted by the payment provider widget.
type PaymentInput struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Payer      struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

// Checkout turns the user's cart into an order. With a non-empty key and an
// idempotency store configured, a repeated key returns the original order.
func (s *Service) Checkout(ctx context.Context, userID string, in CheckoutInput, key string) (*domain.Order, error) {
	if key == "" || s.keys == nil {
		return s.checkout(ctx, userID, in)
	}

	scoped := "checkout:" + userID + ":" + key
	existing, err := s.keys.Reserve(ctx, scoped)
	if errors.Is(err, idempotency.ErrInProgress) {
		return nil, domain.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	if existing != "" {
		s.logger.Printf("order: replay key=%s order=%s", scoped, existing)
		return s.orders.GetByID(ctx, existing)
	}

	o, err := s.checkout(ctx, userID, in)
	if err != nil {
		if relErr := s.keys.Release(ctx, scoped); relErr != nil {
			s.logger.Printf("order: release key=%s error=%v", scoped, relErr)
		}
		return nil, err
	}
	s.completeKey(ctx, scoped, o.ID)
	return o, nil
}

// completeKey records the order under the key, retrying once. If both writes
// fail the key stays pending until its TTL lapses.
func (s *Service) completeKey(ctx context.Context, key, orderID string) {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err = s.keys.Complete(ctx, key, orderID); err == nil {
			return
		}
	}
	s.logger.Printf("order: complete key=%s order=%s error=%v", key, orderID, err)
}

func (s *Service) checkout(ctx context.Context, userID string, in CheckoutInput) (*domain.Order, error) {
	address, err := normalizeAddress(in.ShippingAddress)
	if err != nil {
		return nil, err
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return nil, domain.NewValidationError("paymentMethod is required")
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && cart.IsEmpty()) {
		return nil, domain.ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}

	items, err := s.snapshot(ctx, cart)
	if err != nil {
		return nil, err
	}
	totals := ComputeTotals(items, s.pricing)

	o, err := s.orders.Place(ctx, domain.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   method,
		ItemsPrice:      totals.Items,
		TaxPrice:        totals.Tax,
		ShippingPrice:   totals.Shipping,
		TotalPrice:      totals.Total,
		Status:          domain.OrderStatusPending,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order: placed id=%s user=%s total=%s", o.ID, userID, o.TotalPrice)

	if _, err := s.carts.RemoveOrdered(ctx, userID, cart.Lines); err != nil {
		s.logger.Printf("order: clear cart user=%s after order=%s error=%v", userID, o.ID, err)
	}
	return o, nil
}

// snapshot validates every line against a fresh product read before
// anything is written and builds the order items in cart order.
func (s *Service) snapshot(ctx context.Context, cart *domain.Cart) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]domain.OrderItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		if err := domain.ValidateQuantity(l.Quantity); err != nil {
			return nil, err
		}
		p, ok := byID[l.ProductID]
		if !ok {
			name := ""
			if l.Product != nil {
				name = l.Product.Name
			}
			return nil, &domain.ProductUnavailableError{ProductID: l.ProductID, Name: name}
		}
		if !p.IsActive {
			return nil, &domain.ProductUnavailableError{ProductID: p.ID, Name: p.Name}
		}
		if p.Stock < l.Quantity {
			return nil, &domain.InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: l.Quantity, Available: p.Stock}
		}
		items = append(items, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}
	return items, nil
}

func normalizeAddress(in ShippingAddressInput) (domain.ShippingAddress, error) {
	out := domain.ShippingAddress{
		Address:    strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.TrimSpace(in.Country),
	}
	fields := []struct{ name, value string }{
		{"shippingAddress.address", out.Address},
		{"shippingAddress.city", out.City},
		{"shippingAddress.postalCode", out.PostalCode},
		{"shippingAddress.country", out.Country},
	}
	for _, f := range fields {
		if f.value == "" {
			return out, domain.NewValidationError("%s is required", f.name)
		}
	}
	return out, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListAll(ctx)
}

// Get returns the order when the caller placed it or is an admin.
func (s *Service) Get(ctx context.Context, caller *domain.User, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(caller.ID) && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// MarkPaid is allowed for the order's owner only.
func (s *Service) MarkPaid(ctx context.Context, caller *domain.User, id string, in PaymentInput) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(caller.ID) {
		return nil, domain.ErrForbidden
	}
	updated, err := s.orders.MarkPaid(ctx, id, &domain.PaymentResult{
		ID:           in.ID,
		Status:       in.Status,
		UpdateTime:   in.UpdateTime,
		EmailAddress: in.Payer.EmailAddress,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order: paid id=%s user=%s", id, caller.ID)
	return updated, nil
}

// MarkDelivered is allowed for admins only.
func (s *Service) MarkDelivered(ctx context.Context, caller *domain.User, id string) (*domain.Order, error) {
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	updated, err := s.orders.MarkDelivered(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order: delivered id=%s by=%s", id, caller.ID)
	return updated, nil
}
