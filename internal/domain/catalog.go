package domain

import (
	"context"
	"time"
)

// Product statuses accepted by the admin status update.
const (
	ProductActive   = "active"
	ProductInactive = "inactive"
)

// Product is a sellable item. Price is in the smallest currency unit.
type Product struct {
	ID         uint64    `json:"id"`
	CategoryID *uint64   `json:"category_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Price      int64     `json:"price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Category groups products.
type Category struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Banner is a promotional image shown by the storefront.
type Banner struct {
	ID        uint64 `json:"id"`
	Title     string `json:"title"`
	Image     string `json:"image"`
	Position  string `json:"position"`
	Status    string `json:"status"`
	SortOrder int    `json:"sort_order"`
}

// ProductFilter narrows a product listing. Zero values mean "any".
type ProductFilter struct {
	Status     string
	CategoryID uint64
	Search     string
	Page       Page
}

// CatalogRepository is the port for products, categories and banners.
type CatalogRepository interface {
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	GetProduct(ctx context.Context, id uint64) (*Product, error)
	SetProductStatus(ctx context.Context, id uint64, status string) (bool, error)
	CountProducts(ctx context.Context) (int64, error)
	ListCategories(ctx context.Context, status string) ([]Category, error)
	CreateCategory(ctx context.Context, name, status string) (*Category, error)
	DeleteCategory(ctx context.Context, id uint64) (bool, error)
	ListBanners(ctx context.Context, position string) ([]Banner, error)
}
