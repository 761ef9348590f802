package app

import (
	"context"
	"strings"

	"hyperlocal/internal/domain"
)

// WithdrawalUpdate is an admin decision on a withdrawal request.
type WithdrawalUpdate struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// PayoutService reviews seller and delivery-boy withdrawals and keeps the
// system update log.
type PayoutService struct {
	store domain.Store
}

// NewPayoutService creates a new payout service.
func NewPayoutService(store domain.Store) *PayoutService {
	return &PayoutService{store: store}
}

// ListWithdrawals pages through withdrawals of one kind.
func (s *PayoutService) ListWithdrawals(ctx context.Context, kind domain.WithdrawalKind, status string, page domain.Page) (*domain.Paginated[domain.Withdrawal], error) {
	if status != "" && !domain.ValidWithdrawalStatus(status) {
		return nil, domain.BadRequest("unknown status " + status)
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	items, total, err := conn.Withdrawals().ListWithdrawals(ctx, kind, status, page)
	if err != nil {
		return nil, dbErr(err)
	}
	out := domain.Paginate(items, total, page)
	return &out, nil
}

// UpdateWithdrawal applies an admin decision.
func (s *PayoutService) UpdateWithdrawal(ctx context.Context, kind domain.WithdrawalKind, id uint64, u WithdrawalUpdate) error {
	if !domain.ValidWithdrawalStatus(u.Status) {
		return domain.BadRequest("status must be one of pending, approved, rejected, settled")
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return err
	}
	defer conn.Release()

	ok, err := conn.Withdrawals().UpdateWithdrawal(ctx, kind, id, u.Status, u.Notes)
	if err != nil {
		return dbErr(err)
	}
	if !ok {
		return domain.NotFound("Withdrawal")
	}
	return nil
}

// ListSystemUpdates returns the update log newest first.
func (s *PayoutService) ListSystemUpdates(ctx context.Context) ([]domain.SystemUpdate, error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	out, err := conn.SystemUpdates().ListSystemUpdates(ctx)
	if err != nil {
		return nil, dbErr(err)
	}
	return out, nil
}

// RecordSystemUpdate appends to the update log on behalf of the principal.
func (s *PayoutService) RecordSystemUpdate(ctx context.Context, p domain.Principal, version, notes string) (*domain.SystemUpdate, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, domain.BadRequest("version is required")
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	u, err := conn.SystemUpdates().CreateSystemUpdate(ctx, version, notes, p.UserID)
	if err != nil {
		return nil, dbErr(err)
	}
	return u, nil
}
