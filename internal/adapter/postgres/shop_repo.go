package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hyperlocal/internal/domain"
)

// ListCart returns the user's cart lines with current product data.
func (c *Conn) ListCart(ctx context.Context, userID uint64) ([]domain.CartItem, error) {
	rows, err := c.c.Query(ctx,
		`SELECT ci.id, ci.product_id, p.name, p.price, ci.quantity, ci.created_at
		 FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.user_id = $1 ORDER BY ci.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.CartItem{}
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// AddCartItem adds quantity of a product to the cart, merging with an existing
// line. It returns nil when the product does not exist.
func (c *Conn) AddCartItem(ctx context.Context, userID, productID uint64, quantity int) (*domain.CartItem, error) {
	var it domain.CartItem
	err := c.c.QueryRow(ctx,
		`WITH up AS (
			INSERT INTO cart_items (user_id, product_id, quantity)
			SELECT $1, p.id, $3 FROM products p WHERE p.id = $2
			ON CONFLICT (user_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			RETURNING id, product_id, quantity, created_at
		)
		SELECT up.id, up.product_id, p.name, p.price, up.quantity, up.created_at
		FROM up JOIN products p ON p.id = up.product_id`,
		userID, productID, quantity,
	).Scan(&it.ID, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// RemoveCartItem deletes one of the user's cart lines.
func (c *Conn) RemoveCartItem(ctx context.Context, userID, itemID uint64) (bool, error) {
	tag, err := c.c.Exec(ctx, "DELETE FROM cart_items WHERE id = $1 AND user_id = $2", itemID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListOrders lists orders newest first. A zero userID lists every user's orders.
func (c *Conn) ListOrders(ctx context.Context, userID uint64, p domain.Page) ([]domain.Order, int64, error) {
	var total int64
	if err := c.c.QueryRow(ctx,
		"SELECT COUNT(*) FROM orders WHERE $1::bigint = 0 OR user_id = $1", userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := c.c.Query(ctx,
		`SELECT id, user_id, total, status, created_at FROM orders
		 WHERE $1::bigint = 0 OR user_id = $1
		 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		userID, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	out := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.Status, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		items, err := c.orderItems(ctx, out[i].ID)
		if err != nil {
			return nil, 0, err
		}
		out[i].Items = items
	}
	return out, total, nil
}

func (c *Conn) orderItems(ctx context.Context, orderID uint64) ([]domain.OrderItem, error) {
	rows, err := c.c.Query(ctx,
		"SELECT product_id, name, price, quantity FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// PlaceOrder converts the user's cart into an order in one transaction.
func (c *Conn) PlaceOrder(ctx context.Context, userID uint64) (*domain.Order, error) {
	tx, err := c.c.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT ci.product_id, p.name, p.price, ci.quantity
		 FROM cart_items ci JOIN products p ON p.id = ci.product_id
		 WHERE ci.user_id = $1 ORDER BY ci.id FOR UPDATE OF ci`, userID)
	if err != nil {
		return nil, err
	}
	o := domain.Order{UserID: userID, Status: domain.OrderPending}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			rows.Close()
			return nil, err
		}
		o.Items = append(o.Items, it)
		o.Total += it.Price * int64(it.Quantity)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(o.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	if err := tx.QueryRow(ctx,
		"INSERT INTO orders (user_id, total, status) VALUES ($1, $2, $3) RETURNING id, created_at",
		userID, o.Total, o.Status,
	).Scan(&o.ID, &o.CreatedAt); err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(
			"INSERT INTO order_items (order_id, product_id, name, price, quantity) VALUES ($1, $2, $3, $4, $5)",
			o.ID, it.ProductID, it.Name, it.Price, it.Quantity)
	}
	batch.Queue("DELETE FROM cart_items WHERE user_id = $1", userID)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &o, nil
}

// CountOrders returns the number of orders.
func (c *Conn) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := c.c.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&n)
	return n, err
}
