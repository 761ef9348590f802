package app

import (
	"context"

	"hyperlocal/internal/domain"
)

// DashboardStats are the admin landing-page counters.
type DashboardStats struct {
	TotalUsers         int64 `json:"total_users"`
	TotalProducts      int64 `json:"total_products"`
	TotalOrders        int64 `json:"total_orders"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
}

// DashboardService aggregates counters across repositories.
type DashboardService struct {
	store domain.Store
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store domain.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Stats reads every counter on one connection.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var st DashboardStats
	counters := []struct {
		dst *int64
		fn  func(context.Context) (int64, error)
	}{
		{&st.TotalUsers, conn.Users().Count},
		{&st.TotalProducts, conn.Catalog().CountProducts},
		{&st.TotalOrders, conn.Orders().CountOrders},
		{&st.PendingWithdrawals, conn.Withdrawals().CountPendingWithdrawals},
	}
	for _, c := range counters {
		n, err := c.fn(ctx)
		if err != nil {
			return nil, dbErr(err)
		}
		*c.dst = n
	}
	return &st, nil
}
