package domain

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyCart is returned when an order is placed from an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// CartItem is one product line in a customer's cart.
type CartItem struct {
	ID          uint64    `json:"id"`
	ProductID   uint64    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderItem is a product line frozen at checkout.
type OrderItem struct {
	ProductID uint64 `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Order is a placed order.
type Order struct {
	ID        uint64      `json:"id"`
	UserID    uint64      `json:"user_id"`
	Total     int64       `json:"total"`
	Status    string      `json:"status"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderPending is the status of a freshly placed order.
const OrderPending = "pending"

// CartRepository is the port for cart persistence.
type CartRepository interface {
	ListCart(ctx context.Context, userID uint64) ([]CartItem, error)
	AddCartItem(ctx context.Context, userID, productID uint64, quantity int) (*CartItem, error)
	RemoveCartItem(ctx context.Context, userID, itemID uint64) (bool, error)
}

// OrderRepository is the port for order persistence.
type OrderRepository interface {
	// ListOrders lists orders of userID, or of every user when userID is 0.
	ListOrders(ctx context.Context, userID uint64, p Page) ([]Order, int64, error)
	// PlaceOrder turns the user's cart into an order atomically. It returns
	// ErrEmptyCart when there is nothing to order.
	PlaceOrder(ctx context.Context, userID uint64) (*Order, error)
	CountOrders(ctx context.Context) (int64, error)
}
