package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/idempotency"
	"storefront/internal/migrate"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	userrepo "storefront/internal/repository/user"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	usersvc "storefront/internal/service/user"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	var cartRepo cartrepo.Repository
	switch cfg.CartStore {
	case config.CartStoreMongo:
		mdb, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatalf("connect to mongo: %v", err)
		}
		defer func() { _ = mdb.Client().Disconnect(context.Background()) }()
		cartRepo, err = cartrepo.NewMongo(ctx, mdb, logger)
		if err != nil {
			logger.Fatalf("init mongo cart store: %v", err)
		}
	case config.CartStorePostgres:
		cartRepo = cartrepo.NewPostgres(dbpool, logger)
	default:
		logger.Fatalf("unknown CART_STORE %q", cfg.CartStore)
	}
	logger.Printf("cart store: %s", cfg.CartStore)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Fatalf("create upload dir: %v", err)
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	categoryService := categorysvc.New(categoryrepo.NewPostgres(dbpool, logger))
	userService := usersvc.New(userrepo.NewPostgres(dbpool, logger), cfg.JWTSecret, cfg.TokenTTL)
	cartService := cartsvc.New(cartRepo, productRepo, logger)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), cartRepo, productRepo, cfg.Pricing, logger)

	if cfg.RedisAddr != "" {
		rdb, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		defer rdb.Close()
		orderService.UseIdempotency(idempotency.NewRedis(rdb, cfg.IdempotencyTTL))
		logger.Printf("checkout idempotency enabled (ttl %s)", cfg.IdempotencyTTL)
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		UserSvc:     userService,
		ProductSvc:  productService,
		CategorySvc: categoryService,
		CartSvc:     cartService,
		OrderSvc:    orderService,
	}, httpserver.Options{
		UploadDir:      cfg.UploadDir,
		FileURLHost:    cfg.FileURLHost,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
