package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "CART_STORE", "TAX_RATE", "CORS_ALLOWED_ORIGINS", "TOKEN_TTL_HOURS"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.CartStore != CartStorePostgres {
		t.Fatalf("unexpected cart store %q", cfg.CartStore)
	}
	if cfg.Pricing.TaxRate.String() != "0.1" {
		t.Fatalf("unexpected tax rate %s", cfg.Pricing.TaxRate)
	}
	if cfg.TokenTTL != 30*24*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.TokenTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CART_STORE", "MONGO")
	t.Setenv("TAX_RATE", "0.2")
	t.Setenv("FREE_SHIPPING_OVER", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("FILE_URL_HOST", "https://cdn.test/")

	cfg := FromEnv()
	if cfg.CartStore != CartStoreMongo {
		t.Fatalf("expected mongo store, got %q", cfg.CartStore)
	}
	if cfg.Pricing.TaxRate.String() != "0.2" {
		t.Fatalf("expected tax override, got %s", cfg.Pricing.TaxRate)
	}
	if cfg.Pricing.FreeShippingOver.String() != "100" {
		t.Fatalf("invalid value should keep default, got %s", cfg.Pricing.FreeShippingOver)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
	if cfg.FileURLHost != "https://cdn.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.FileURLHost)
	}
}
