package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyperlocal/internal/adapter/memory"
	"hyperlocal/internal/domain"
	"hyperlocal/internal/pool"
)

func newMemoryStore(t *testing.T) (*memory.Store, *memory.DB) {
	t.Helper()
	db := memory.New()
	return memory.NewStore(db, pool.Config{MaxSize: 2, AcquireTimeout: 100 * time.Millisecond}), db
}

func TestCatalogService(t *testing.T) {
	store, db := newMemoryStore(t)
	svc := NewCatalogService(store)
	ctx := context.Background()

	active := db.AddProduct(domain.Product{Name: "Milk", Price: 50, Status: domain.ProductActive})
	hidden := db.AddProduct(domain.Product{Name: "Old", Price: 10, Status: domain.ProductInactive})

	page, err := svc.ListProducts(ctx, domain.ProductFilter{Status: domain.ProductActive, Page: domain.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Milk", page.Data[0].Name)

	_, err = svc.GetProduct(ctx, hidden.ID, true)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	p, err := svc.GetProduct(ctx, hidden.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Old", p.Name)

	assert.Equal(t, domain.KindBadRequest, domain.KindOf(svc.SetProductStatus(ctx, active.ID, "archived")))
	require.NoError(t, svc.SetProductStatus(ctx, active.ID, domain.ProductInactive))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(svc.SetProductStatus(ctx, 999, domain.ProductActive)))

	_, err = svc.CreateCategory(ctx, "  ", "")
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	cat, err := svc.CreateCategory(ctx, "Fruit", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductActive, cat.Status)
	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))
	err = svc.DeleteCategory(ctx, cat.ID)
	assert.Equal(t, "Category not found", domain.MessageOf(err))

	assert.Equal(t, int64(0), store.Pool().InUse())
}

func TestShopService_Checkout(t *testing.T) {
	store, db := newMemoryStore(t)
	svc := NewShopService(store)
	ctx := context.Background()
	p := domain.Principal{UserID: 11, AccessPanel: domain.AccessPanelUser}

	bread := db.AddProduct(domain.Product{Name: "Bread", Price: 30, Status: domain.ProductActive})
	off := db.AddProduct(domain.Product{Name: "Off", Price: 1, Status: domain.ProductInactive})

	_, err := svc.PlaceOrder(ctx, p)
	assert.Equal(t, "Cart is empty", domain.MessageOf(err))

	_, err = svc.AddToCart(ctx, p, bread.ID, 0)
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	_, err = svc.AddToCart(ctx, p, off.ID, 1)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	item, err := svc.AddToCart(ctx, p, bread.ID, 2)
	require.NoError(t, err)

	cart, err := svc.Cart(ctx, p)
	require.NoError(t, err)
	require.Len(t, cart, 1)

	// Other customers cannot remove the line.
	err = svc.RemoveFromCart(ctx, domain.Principal{UserID: 12}, item.ID)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	order, err := svc.PlaceOrder(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(60), order.Total)

	orders, err := svc.Orders(ctx, p, domain.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), orders.Total)

	cart, err = svc.Cart(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestPayoutService(t *testing.T) {
	store, db := newMemoryStore(t)
	svc := NewPayoutService(store)
	ctx := context.Background()

	w := db.AddWithdrawal(domain.Withdrawal{Kind: domain.WithdrawalDeliveryBoy, AccountID: 4, Amount: 500})

	_, err := svc.ListWithdrawals(ctx, domain.WithdrawalDeliveryBoy, "lost", domain.NewPage(1, 10))
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	page, err := svc.ListWithdrawals(ctx, domain.WithdrawalDeliveryBoy, domain.WithdrawalPending, domain.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	err = svc.UpdateWithdrawal(ctx, domain.WithdrawalDeliveryBoy, w.ID, WithdrawalUpdate{Status: "paid"})
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	err = svc.UpdateWithdrawal(ctx, domain.WithdrawalSeller, w.ID, WithdrawalUpdate{Status: domain.WithdrawalApproved})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	require.NoError(t, svc.UpdateWithdrawal(ctx, domain.WithdrawalDeliveryBoy, w.ID, WithdrawalUpdate{Status: domain.WithdrawalSettled, Notes: ptr("bank ref 42")}))

	admin := domain.Principal{UserID: 1, AccessPanel: domain.AccessPanelAdmin}
	_, err = svc.RecordSystemUpdate(ctx, admin, "", "")
	assert.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	_, err = svc.RecordSystemUpdate(ctx, admin, "1.0.1", "hotfix")
	require.NoError(t, err)
	updates, err := svc.ListSystemUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, uint64(1), updates[0].AppliedBy)
}

func TestDashboardService(t *testing.T) {
	store, db := newMemoryStore(t)
	ctx := context.Background()

	db.AddProduct(domain.Product{Name: "A", Status: domain.ProductActive})
	db.AddWithdrawal(domain.Withdrawal{Kind: domain.WithdrawalSeller, Amount: 1})
	_, err := db.Create(ctx, domain.NewUser{Email: "u@x", AccessPanel: domain.AccessPanelUser})
	require.NoError(t, err)

	st, err := NewDashboardService(store).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{TotalUsers: 1, TotalProducts: 1, PendingWithdrawals: 1}, *st)
}

func TestServices_PoolSaturationIsUnavailable(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	a, err := store.Lease(ctx)
	require.NoError(t, err)
	b, err := store.Lease(ctx)
	require.NoError(t, err)
	defer a.Release()
	defer b.Release()

	_, err = NewCatalogService(store).ListCategories(ctx, "")
	assert.Equal(t, domain.KindDBUnavailable, domain.KindOf(err))
	assert.Equal(t, "Database connection failed", domain.MessageOf(err))
}
