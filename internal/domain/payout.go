package domain

import (
	"context"
	"time"
)

// WithdrawalKind selects the payee population of a withdrawal request.
type WithdrawalKind string

const (
	WithdrawalSeller      WithdrawalKind = "seller"
	WithdrawalDeliveryBoy WithdrawalKind = "delivery_boy"
)

// Withdrawal statuses.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
	WithdrawalSettled  = "settled"
)

// ValidWithdrawalStatus reports whether s is a known withdrawal status.
func ValidWithdrawalStatus(s string) bool {
	switch s {
	case WithdrawalPending, WithdrawalApproved, WithdrawalRejected, WithdrawalSettled:
		return true
	}
	return false
}

// Withdrawal is a payout request from a seller or delivery boy.
type Withdrawal struct {
	ID        uint64         `json:"id"`
	Kind      WithdrawalKind `json:"kind"`
	AccountID uint64         `json:"account_id"`
	Amount    int64          `json:"amount"`
	Status    string         `json:"status"`
	Notes     *string        `json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SystemUpdate records an applied platform update.
type SystemUpdate struct {
	ID        uint64    `json:"id"`
	Version   string    `json:"version"`
	Notes     string    `json:"notes"`
	AppliedBy uint64    `json:"applied_by"`
	CreatedAt time.Time `json:"created_at"`
}

// WithdrawalRepository is the port for payout requests.
type WithdrawalRepository interface {
	ListWithdrawals(ctx context.Context, kind WithdrawalKind, status string, p Page) ([]Withdrawal, int64, error)
	UpdateWithdrawal(ctx context.Context, kind WithdrawalKind, id uint64, status string, notes *string) (bool, error)
	CountPendingWithdrawals(ctx context.Context) (int64, error)
}

// SystemUpdateRepository is the port for the system update log.
type SystemUpdateRepository interface {
	ListSystemUpdates(ctx context.Context) ([]SystemUpdate, error)
	CreateSystemUpdate(ctx context.Context, version, notes string, appliedBy uint64) (*SystemUpdate, error)
}
