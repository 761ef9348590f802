package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hyperlocal/internal/domain"
)

const productColumns = "id, category_id, name, slug, price, status, created_at"

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Price, &p.Status, &p.CreatedAt)
	return p, err
}

// ListProducts returns one page of products matching f and the unpaged total.
func (c *Conn) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.CategoryID != 0 {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := c.c.QueryRow(ctx, "SELECT COUNT(*) FROM products"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Page.PerPage, f.Page.Offset())
	rows, err := c.c.Query(ctx,
		fmt.Sprintf("SELECT %s FROM products%s ORDER BY id LIMIT $%d OFFSET $%d",
			productColumns, clause, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetProduct retrieves a product by ID.
func (c *Conn) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	p, err := scanProduct(c.c.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetProductStatus updates a product's status.
func (c *Conn) SetProductStatus(ctx context.Context, id uint64, status string) (bool, error) {
	tag, err := c.c.Exec(ctx, "UPDATE products SET status = $2 WHERE id = $1", id, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountProducts returns the number of products.
func (c *Conn) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := c.c.QueryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

// ListCategories lists categories ordered by name, optionally by status.
func (c *Conn) ListCategories(ctx context.Context, status string) ([]domain.Category, error) {
	rows, err := c.c.Query(ctx,
		`SELECT id, name, status, created_at FROM categories
		 WHERE $1 = '' OR status = $1 ORDER BY name`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Status, &cat.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category.
func (c *Conn) CreateCategory(ctx context.Context, name, status string) (*domain.Category, error) {
	var cat domain.Category
	err := c.c.QueryRow(ctx,
		"INSERT INTO categories (name, status) VALUES ($1, $2) RETURNING id, name, status, created_at",
		name, status,
	).Scan(&cat.ID, &cat.Name, &cat.Status, &cat.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes a category by ID.
func (c *Conn) DeleteCategory(ctx context.Context, id uint64) (bool, error) {
	tag, err := c.c.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListBanners lists active banners by sort order, optionally for one position.
func (c *Conn) ListBanners(ctx context.Context, position string) ([]domain.Banner, error) {
	rows, err := c.c.Query(ctx,
		`SELECT id, title, image, position, status, sort_order FROM banners
		 WHERE status = 'active' AND ($1 = '' OR position = $1)
		 ORDER BY sort_order, id`, position)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Banner{}
	for rows.Next() {
		var b domain.Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.Image, &b.Position, &b.Status, &b.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
