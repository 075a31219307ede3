package httpserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"

	"github.com/gin-gonic/gin"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

var (
	testUser  = &domain.User{ID: "user-1", Name: "Jane", Email: "jane@example.com", Role: domain.RoleUser}
	testAdmin = &domain.User{ID: "admin-1", Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin}
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubUserService struct {
	user       *domain.User
	token      string
	err        error
	registered usersvc.RegisterInput
}

func (s *stubUserService) Register(_ context.Context, in usersvc.RegisterInput) (*domain.User, string, error) {
	s.registered = in
	return s.user, s.token, s.err
}

func (s *stubUserService) Login(_ context.Context, _, _ string) (*domain.User, string, error) {
	return s.user, s.token, s.err
}

func (s *stubUserService) LookupByToken(_ context.Context, token string) (*domain.User, error) {
	switch token {
	case userToken:
		return testUser, nil
	case adminToken:
		return testAdmin, nil
	}
	return nil, usersvc.ErrInvalidToken
}

func (s *stubUserService) Profile(_ context.Context, _ string) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubUserService) UpdateProfile(_ context.Context, _ string, _ usersvc.ProfileInput) (*domain.User, string, error) {
	return s.user, s.token, s.err
}

type stubProductService struct {
	result   *productsvc.ListResult
	products []domain.Product
	product  *domain.Product
	err      error
	query    productsvc.ListQuery
	input    productsvc.Input
	calls    int
	id       string
}

func (s *stubProductService) List(_ context.Context, q productsvc.ListQuery) (*productsvc.ListResult, error) {
	s.calls++
	s.query = q
	return s.result, s.err
}

func (s *stubProductService) ListAll(_ context.Context) ([]domain.Product, error) {
	s.calls++
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	s.calls++
	s.id = id
	return s.product, s.err
}

func (s *stubProductService) Create(_ context.Context, in productsvc.Input) (*domain.Product, error) {
	s.calls++
	s.input = in
	return s.product, s.err
}

func (s *stubProductService) Update(_ context.Context, id string, in productsvc.Input) (*domain.Product, error) {
	s.calls++
	s.id = id
	s.input = in
	return s.product, s.err
}

func (s *stubProductService) Delete(_ context.Context, id string) error {
	s.calls++
	s.id = id
	return s.err
}

type stubCategoryService struct {
	names []string
	err   error
}

func (s *stubCategoryService) List(_ context.Context) ([]string, error) {
	return s.names, s.err
}

type stubCartService struct {
	cart   *domain.Cart
	err    error
	added     cartsvc.AddInput
	userID    string
	productID string
}

func (s *stubCartService) Get(_ context.Context, userID string) (*domain.Cart, error) {
	s.userID = userID
	return s.cart, s.err
}

func (s *stubCartService) Add(_ context.Context, userID string, in cartsvc.AddInput) (*domain.Cart, error) {
	s.userID = userID
	s.added = in
	return s.cart, s.err
}

func (s *stubCartService) UpdateQuantity(_ context.Context, userID, productID string, _ int) (*domain.Cart, error) {
	s.userID = userID
	s.productID = productID
	return s.cart, s.err
}

func (s *stubCartService) Remove(_ context.Context, userID, productID string) (*domain.Cart, error) {
	s.userID = userID
	s.productID = productID
	return s.cart, s.err
}

func (s *stubCartService) Clear(_ context.Context, userID string) (*domain.Cart, error) {
	s.userID = userID
	return s.cart, s.err
}

type stubOrderService struct {
	order  *domain.Order
	orders []domain.Order
	err    error
	key    string
	input  ordersvc.CheckoutInput
	paid   ordersvc.PaymentInput
	caller *domain.User
	id     string
}

func (s *stubOrderService) Checkout(_ context.Context, _ string, in ordersvc.CheckoutInput, key string) (*domain.Order, error) {
	s.input = in
	s.key = key
	return s.order, s.err
}

func (s *stubOrderService) ListMine(_ context.Context, _ string) ([]domain.Order, error) {
	return s.orders, s.err
}

func (s *stubOrderService) ListAll(_ context.Context) ([]domain.Order, error) {
	return s.orders, s.err
}

func (s *stubOrderService) Get(_ context.Context, caller *domain.User, id string) (*domain.Order, error) {
	s.caller = caller
	s.id = id
	return s.order, s.err
}

func (s *stubOrderService) MarkPaid(_ context.Context, caller *domain.User, _ string, in ordersvc.PaymentInput) (*domain.Order, error) {
	s.caller = caller
	s.paid = in
	return s.order, s.err
}

func (s *stubOrderService) MarkDelivered(_ context.Context, caller *domain.User, _ string) (*domain.Order, error) {
	s.caller = caller
	return s.order, s.err
}

// newTestRouter fills unset services with empty stubs.
func newTestRouter(t *testing.T, deps Deps, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.UserSvc == nil {
		deps.UserSvc = &stubUserService{}
	}
	if deps.ProductSvc == nil {
		deps.ProductSvc = &stubProductService{}
	}
	if deps.CategorySvc == nil {
		deps.CategorySvc = &stubCategoryService{}
	}
	if deps.CartSvc == nil {
		deps.CartSvc = &stubCartService{}
	}
	if deps.OrderSvc == nil {
		deps.OrderSvc = &stubOrderService{}
	}
	router, err := buildRouter(logDiscard(), nil, deps, opts)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func doJSON(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
