package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlaceholderImage is used when a product is created without an image.
const PlaceholderImage = "https://via.placeholder.com/400x400"

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductSummary is the read-only view of a product embedded in cart lines.
type ProductSummary struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Stock    int             `json:"stock"`
	IsActive bool            `json:"isActive"`
}

func (p Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Image:    p.Image,
		Stock:    p.Stock,
		IsActive: p.IsActive,
	}
}
