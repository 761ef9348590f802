package adapthttp

import (
	"net/http"
	"strconv"

	"hyperlocal/internal/app"
	"hyperlocal/internal/domain"
)

func (s *Server) handleDashboardStats(r *http.Request) (result[*app.DashboardStats], error) {
	st, err := s.dashboard.Stats(r.Context())
	if err != nil {
		return result[*app.DashboardStats]{}, err
	}
	return ok(st), nil
}

func (s *Server) handleAdminCategories(r *http.Request) (result[[]domain.Category], error) {
	cats, err := s.catalog.ListCategories(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		return result[[]domain.Category]{}, err
	}
	return ok(cats), nil
}

type categoryRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (s *Server) handleCreateCategory(r *http.Request, req categoryRequest) (result[*domain.Category], error) {
	c, err := s.catalog.CreateCategory(r.Context(), req.Name, req.Status)
	if err != nil {
		return result[*domain.Category]{}, err
	}
	return result[*domain.Category]{status: http.StatusCreated, message: "Category created successfully", data: c}, nil
}

func (s *Server) handleDeleteCategory(r *http.Request) (result[none], error) {
	id, err := idVar(r)
	if err != nil {
		return result[none]{}, err
	}
	if err := s.catalog.DeleteCategory(r.Context(), id); err != nil {
		return result[none]{}, err
	}
	return done("Category deleted successfully"), nil
}

// productFilter reads status, category_id, search, page and per_page.
func productFilter(r *http.Request) domain.ProductFilter {
	q := r.URL.Query()
	f := domain.ProductFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Page:   pageQuery(r),
	}
	if id, err := strconv.ParseUint(q.Get("category_id"), 10, 64); err == nil {
		f.CategoryID = id
	}
	return f
}

func (s *Server) handleAdminProducts(r *http.Request) (result[*domain.Paginated[domain.Product]], error) {
	page, err := s.catalog.ListProducts(r.Context(), productFilter(r))
	if err != nil {
		return result[*domain.Paginated[domain.Product]]{}, err
	}
	return ok(page), nil
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleProductStatus(r *http.Request, req statusRequest) (result[none], error) {
	id, err := idVar(r)
	if err != nil {
		return result[none]{}, err
	}
	if err := s.catalog.SetProductStatus(r.Context(), id, req.Status); err != nil {
		return result[none]{}, err
	}
	return done("Product status updated successfully"), nil
}

func (s *Server) handleWithdrawals(kind domain.WithdrawalKind) func(*http.Request) (result[*domain.Paginated[domain.Withdrawal]], error) {
	return func(r *http.Request) (result[*domain.Paginated[domain.Withdrawal]], error) {
		page, err := s.payouts.ListWithdrawals(r.Context(), kind, r.URL.Query().Get("status"), pageQuery(r))
		if err != nil {
			return result[*domain.Paginated[domain.Withdrawal]]{}, err
		}
		return ok(page), nil
	}
}

func (s *Server) handleUpdateWithdrawal(kind domain.WithdrawalKind) func(*http.Request, app.WithdrawalUpdate) (result[none], error) {
	return func(r *http.Request, req app.WithdrawalUpdate) (result[none], error) {
		id, err := idVar(r)
		if err != nil {
			return result[none]{}, err
		}
		if err := s.payouts.UpdateWithdrawal(r.Context(), kind, id, req); err != nil {
			return result[none]{}, err
		}
		return done("Withdrawal updated successfully"), nil
	}
}

func (s *Server) handleSystemUpdates(r *http.Request) (result[[]domain.SystemUpdate], error) {
	updates, err := s.payouts.ListSystemUpdates(r.Context())
	if err != nil {
		return result[[]domain.SystemUpdate]{}, err
	}
	return ok(updates), nil
}

type systemUpdateRequest struct {
	Version string `json:"version"`
	Notes   string `json:"notes"`
}

func (s *Server) handleCreateSystemUpdate(r *http.Request, req systemUpdateRequest) (result[*domain.SystemUpdate], error) {
	u, err := s.payouts.RecordSystemUpdate(r.Context(), mustPrincipal(r), req.Version, req.Notes)
	if err != nil {
		return result[*domain.SystemUpdate]{}, err
	}
	return result[*domain.SystemUpdate]{status: http.StatusCreated, message: "System update recorded", data: u}, nil
}
