package app

import (
	"context"
	"errors"

	"hyperlocal/internal/domain"
)

// maxCartQuantity bounds one cart line.
const maxCartQuantity = 1000

// ShopService manages carts and orders for the authenticated customer.
type ShopService struct {
	store domain.Store
}

// NewShopService creates a new shop service.
func NewShopService(store domain.Store) *ShopService {
	return &ShopService{store: store}
}

// Cart returns the principal's cart.
func (s *ShopService) Cart(ctx context.Context, p domain.Principal) ([]domain.CartItem, error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	items, err := conn.Carts().ListCart(ctx, p.UserID)
	if err != nil {
		return nil, dbErr(err)
	}
	return items, nil
}

// AddToCart adds quantity of an active product to the principal's cart.
func (s *ShopService) AddToCart(ctx context.Context, p domain.Principal, productID uint64, quantity int) (*domain.CartItem, error) {
	if productID == 0 {
		return nil, domain.BadRequest("product_id is required")
	}
	if quantity <= 0 || quantity > maxCartQuantity {
		return nil, domain.BadRequest("quantity must be between 1 and 1000")
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	product, err := conn.Catalog().GetProduct(ctx, productID)
	if err != nil {
		return nil, dbErr(err)
	}
	if product == nil || product.Status != domain.ProductActive {
		return nil, domain.NotFound("Product")
	}

	item, err := conn.Carts().AddCartItem(ctx, p.UserID, productID, quantity)
	if err != nil {
		return nil, dbErr(err)
	}
	if item == nil {
		return nil, domain.NotFound("Product")
	}
	return item, nil
}

// RemoveFromCart deletes one line of the principal's cart.
func (s *ShopService) RemoveFromCart(ctx context.Context, p domain.Principal, itemID uint64) error {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return err
	}
	defer conn.Release()

	ok, err := conn.Carts().RemoveCartItem(ctx, p.UserID, itemID)
	if err != nil {
		return dbErr(err)
	}
	if !ok {
		return domain.NotFound("Cart item")
	}
	return nil
}

// Orders pages through the principal's orders.
func (s *ShopService) Orders(ctx context.Context, p domain.Principal, page domain.Page) (*domain.Paginated[domain.Order], error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	items, total, err := conn.Orders().ListOrders(ctx, p.UserID, page)
	if err != nil {
		return nil, dbErr(err)
	}
	out := domain.Paginate(items, total, page)
	return &out, nil
}

// PlaceOrder checks out the principal's cart.
func (s *ShopService) PlaceOrder(ctx context.Context, p domain.Principal) (*domain.Order, error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	o, err := conn.Orders().PlaceOrder(ctx, p.UserID)
	if errors.Is(err, domain.ErrEmptyCart) {
		return nil, domain.BadRequest("Cart is empty")
	}
	if err != nil {
		return nil, dbErr(err)
	}
	return o, nil
}
