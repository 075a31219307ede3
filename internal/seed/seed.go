package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Admin describes the administrator account created by Apply.
type Admin struct {
	Name         string
	Email        string
	PasswordHash string
}

type productSeed struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
}

var demoProducts = []productSeed{
	{
		Name:        "Wireless Mouse",
		Description: "Compact 2.4GHz mouse with silent clicks",
		Price:       decimal.RequireFromString("24.99"),
		Stock:       40,
		Category:    "Electronics",
	},
	{
		Name:        "Mechanical Keyboard",
		Description: "Tenkeyless keyboard with brown switches",
		Price:       decimal.RequireFromString("89.00"),
		Stock:       15,
		Category:    "Electronics",
	},
	{
		Name:        "Ceramic Mug",
		Description: "350ml stoneware mug",
		Price:       decimal.RequireFromString("12.50"),
		Stock:       60,
		Category:    "Kitchen",
	},
	{
		Name:        "Cotton T-Shirt",
		Description: "Soft cotton tee",
		Price:       decimal.RequireFromString("19.99"),
		Stock:       25,
		Category:    "Clothing",
	},
}

// Apply inserts an admin account and demo products for manual testing. It is
// idempotent: the admin is matched by email and products by name.
func Apply(ctx context.Context, pool *pgxpool.Pool, admin Admin, placeholderImage string) error {
	if err := upsertAdmin(ctx, pool, admin); err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	for _, p := range demoProducts {
		if err := insertProduct(ctx, pool, p, placeholderImage); err != nil {
			return fmt.Errorf("insert product %s: %w", p.Name, err)
		}
	}
	return nil
}

func upsertAdmin(ctx context.Context, pool *pgxpool.Pool, a Admin) error {
	const q = `
INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, 'admin')
ON CONFLICT ((lower(email))) DO UPDATE
SET role = 'admin',
    password_hash = EXCLUDED.password_hash,
    updated_at = now()
`
	_, err := pool.Exec(ctx, q, a.Name, strings.ToLower(a.Email), a.PasswordHash)
	return err
}

func insertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed, image string) error {
	const q = `
INSERT INTO products (name, description, price, stock, category, image)
SELECT $1::text, $2::text, $3::numeric, $4::integer, $5::text, $6::text
WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1)
`
	_, err := pool.Exec(ctx, q, p.Name, p.Description, p.Price, p.Stock, p.Category, image)
	return err
}
