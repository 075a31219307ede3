package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"slices"
	"time"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userService interface {
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in usersvc.ProfileInput) (*domain.User, string, error)
}

type productService interface {
	List(ctx context.Context, q productsvc.ListQuery) (*productsvc.ListResult, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in productsvc.Input) (*domain.Product, error)
	Update(ctx context.Context, id string, in productsvc.Input) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type categoryService interface {
	List(ctx context.Context) ([]string, error)
}

type cartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Add(ctx context.Context, userID string, in cartsvc.AddInput) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	Remove(ctx context.Context, userID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) (*domain.Cart, error)
}

type orderService interface {
	Checkout(ctx context.Context, userID string, in ordersvc.CheckoutInput, key string) (*domain.Order, error)
	ListMine(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, caller *domain.User, id string) (*domain.Order, error)
	MarkPaid(ctx context.Context, caller *domain.User, id string, in ordersvc.PaymentInput) (*domain.Order, error)
	MarkDelivered(ctx context.Context, caller *domain.User, id string) (*domain.Order, error)
}

// Deps holds the services the API delegates to.
type Deps struct {
	UserSvc     userService
	ProductSvc  productService
	CategorySvc categoryService
	CartSvc     cartService
	OrderSvc    orderService
}

// Options carries HTTP-facing settings that are not services.
type Options struct {
	UploadDir      string
	FileURLHost    string
	AllowedOrigins []string
}

type api struct {
	logger *log.Logger
	deps   Deps
	opts   Options
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if deps.UserSvc == nil || deps.ProductSvc == nil || deps.CategorySvc == nil || deps.CartSvc == nil || deps.OrderSvc == nil {
		return nil, errors.New("httpserver: all services are required")
	}
	corsCfg := corsConfig(opts.AllowedOrigins)
	if err := corsCfg.Validate(); err != nil {
		return nil, fmt.Errorf("httpserver: cors: %w", err)
	}
	registerFieldNames()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	if opts.UploadDir != "" {
		router.Static("/uploads", opts.UploadDir)
	}

	a := &api{logger: logger, deps: deps, opts: opts}
	auth := authMiddleware(deps.UserSvc)
	admin := adminOnly()

	r := router.Group("/api")

	users := r.Group("/auth")
	users.POST("/register", a.register)
	users.POST("/login", a.login)
	users.GET("/profile", auth, a.profile)
	users.PUT("/profile", auth, a.updateProfile)

	products := r.Group("/products")
	products.GET("", a.listProducts)
	products.GET("/categories", a.listCategories)
	products.GET("/admin", auth, admin, a.listAllProducts)
	products.GET("/admin/all", auth, admin, a.listAllProducts)
	products.GET("/admin/export", auth, admin, a.exportProducts)
	products.GET("/:id", a.getProduct)
	products.POST("", auth, admin, a.createProduct)
	products.PUT("/:id", auth, admin, a.updateProduct)
	products.DELETE("/:id", auth, admin, a.deleteProduct)

	carts := r.Group("/cart", auth)
	carts.GET("", a.getCart)
	carts.POST("", a.addToCart)
	carts.DELETE("", a.clearCart)
	carts.PUT("/:productId", a.updateCartLine)
	carts.DELETE("/:productId", a.removeCartLine)

	orders := r.Group("/orders", auth)
	orders.POST("", a.checkout)
	orders.GET("", admin, a.listAllOrders)
	orders.GET("/myorders", a.listMyOrders)
	orders.GET("/:id", a.getOrder)
	orders.PUT("/:id/pay", a.payOrder)
	orders.PUT("/:id/deliver", a.deliverOrder)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", idempotencyHeader},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
