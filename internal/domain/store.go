package domain

import "context"

// Store hands out exclusive connection leases from the process-wide pool.
//
// Lease blocks while the pool is saturated. It fails with a KindDBUnavailable error
// when the acquisition timeout elapses, and with the context error when ctx ends first.
type Store interface {
	Lease(ctx context.Context) (Conn, error)
}

// Conn is one leased connection. Repositories obtained from it run on that connection
// only and must not be used after Release. Release is idempotent.
type Conn interface {
	Users() UserRepository
	Catalog() CatalogRepository
	Carts() CartRepository
	Orders() OrderRepository
	Withdrawals() WithdrawalRepository
	SystemUpdates() SystemUpdateRepository
	Release()
}
