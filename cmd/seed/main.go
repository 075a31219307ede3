package main

import (
	"context"
	"flag"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/seed"
	usersvc "storefront/internal/service/user"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		name     string
		email    string
		password string
	)
	flag.StringVar(&name, "admin-name", "Admin", "Administrator display name")
	flag.StringVar(&email, "admin-email", envOr("SEED_ADMIN_EMAIL", "admin@example.com"), "Administrator email")
	flag.StringVar(&password, "admin-password", envOr("SEED_ADMIN_PASSWORD", "Admin1234"), "Administrator password")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	hash, err := usersvc.HashPassword(password)
	if err != nil {
		logger.Fatalf("admin password: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	admin := seed.Admin{Name: name, Email: email, PasswordHash: hash}
	if err := seed.Apply(ctx, pool, admin, domain.PlaceholderImage); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied (admin %s)", email)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
