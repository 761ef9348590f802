package app

import (
	"context"
	"strings"

	"hyperlocal/internal/domain"
)

// CatalogService exposes products, categories and banners.
type CatalogService struct {
	store domain.Store
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store domain.Store) *CatalogService {
	return &CatalogService{store: store}
}

// ListProducts pages through products matching f.
func (s *CatalogService) ListProducts(ctx context.Context, f domain.ProductFilter) (*domain.Paginated[domain.Product], error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	items, total, err := conn.Catalog().ListProducts(ctx, f)
	if err != nil {
		return nil, dbErr(err)
	}
	page := domain.Paginate(items, total, f.Page)
	return &page, nil
}

// GetProduct returns one product. Storefront callers pass onlyActive to hide
// inactive items.
func (s *CatalogService) GetProduct(ctx context.Context, id uint64, onlyActive bool) (*domain.Product, error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	p, err := conn.Catalog().GetProduct(ctx, id)
	if err != nil {
		return nil, dbErr(err)
	}
	if p == nil || (onlyActive && p.Status != domain.ProductActive) {
		return nil, domain.NotFound("Product")
	}
	return p, nil
}

// SetProductStatus switches a product between active and inactive.
func (s *CatalogService) SetProductStatus(ctx context.Context, id uint64, status string) error {
	if status != domain.ProductActive && status != domain.ProductInactive {
		return domain.BadRequest("status must be active or inactive")
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return err
	}
	defer conn.Release()

	ok, err := conn.Catalog().SetProductStatus(ctx, id, status)
	if err != nil {
		return dbErr(err)
	}
	if !ok {
		return domain.NotFound("Product")
	}
	return nil
}

// ListCategories lists categories, optionally by status.
func (s *CatalogService) ListCategories(ctx context.Context, status string) ([]domain.Category, error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	out, err := conn.Catalog().ListCategories(ctx, status)
	if err != nil {
		return nil, dbErr(err)
	}
	return out, nil
}

// CreateCategory adds a category. An empty status means active.
func (s *CatalogService) CreateCategory(ctx context.Context, name, status string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.BadRequest("name is required")
	}
	if status == "" {
		status = domain.ProductActive
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	c, err := conn.Catalog().CreateCategory(ctx, name, status)
	if err != nil {
		return nil, dbErr(err)
	}
	return c, nil
}

// DeleteCategory removes a category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint64) error {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return err
	}
	defer conn.Release()

	ok, err := conn.Catalog().DeleteCategory(ctx, id)
	if err != nil {
		return dbErr(err)
	}
	if !ok {
		return domain.NotFound("Category")
	}
	return nil
}

// ListBanners lists active banners, optionally for one position.
func (s *CatalogService) ListBanners(ctx context.Context, position string) ([]domain.Banner, error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	out, err := conn.Catalog().ListBanners(ctx, position)
	if err != nil {
		return nil, dbErr(err)
	}
	return out, nil
}
