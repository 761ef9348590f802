package adapthttp

import (
	"net/http"

	"hyperlocal/internal/domain"
)

func (s *Server) handleClientProducts(r *http.Request) (result[*domain.Paginated[domain.Product]], error) {
	f := productFilter(r)
	f.Status = domain.ProductActive
	page, err := s.catalog.ListProducts(r.Context(), f)
	if err != nil {
		return result[*domain.Paginated[domain.Product]]{}, err
	}
	return ok(page), nil
}

func (s *Server) handleClientProduct(r *http.Request) (result[*domain.Product], error) {
	id, err := idVar(r)
	if err != nil {
		return result[*domain.Product]{}, err
	}
	p, err := s.catalog.GetProduct(r.Context(), id, true)
	if err != nil {
		return result[*domain.Product]{}, err
	}
	return ok(p), nil
}

func (s *Server) handleClientCategories(r *http.Request) (result[[]domain.Category], error) {
	cats, err := s.catalog.ListCategories(r.Context(), domain.ProductActive)
	if err != nil {
		return result[[]domain.Category]{}, err
	}
	return ok(cats), nil
}

func (s *Server) handleBanners(r *http.Request) (result[[]domain.Banner], error) {
	banners, err := s.catalog.ListBanners(r.Context(), r.URL.Query().Get("position"))
	if err != nil {
		return result[[]domain.Banner]{}, err
	}
	return ok(banners), nil
}

func (s *Server) handleCart(r *http.Request) (result[[]domain.CartItem], error) {
	items, err := s.shop.Cart(r.Context(), mustPrincipal(r))
	if err != nil {
		return result[[]domain.CartItem]{}, err
	}
	return ok(items), nil
}

type cartRequest struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) handleAddToCart(r *http.Request, req cartRequest) (result[*domain.CartItem], error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	item, err := s.shop.AddToCart(r.Context(), mustPrincipal(r), req.ProductID, req.Quantity)
	if err != nil {
		return result[*domain.CartItem]{}, err
	}
	return okMsg("Added to cart", item), nil
}

func (s *Server) handleRemoveFromCart(r *http.Request) (result[none], error) {
	id, err := idVar(r)
	if err != nil {
		return result[none]{}, err
	}
	if err := s.shop.RemoveFromCart(r.Context(), mustPrincipal(r), id); err != nil {
		return result[none]{}, err
	}
	return done("Removed from cart"), nil
}

func (s *Server) handleOrders(r *http.Request) (result[*domain.Paginated[domain.Order]], error) {
	page, err := s.shop.Orders(r.Context(), mustPrincipal(r), pageQuery(r))
	if err != nil {
		return result[*domain.Paginated[domain.Order]]{}, err
	}
	return ok(page), nil
}

func (s *Server) handlePlaceOrder(r *http.Request) (result[*domain.Order], error) {
	o, err := s.shop.PlaceOrder(r.Context(), mustPrincipal(r))
	if err != nil {
		return result[*domain.Order]{}, err
	}
	return result[*domain.Order]{status: http.StatusCreated, message: "Order placed successfully", data: o}, nil
}
