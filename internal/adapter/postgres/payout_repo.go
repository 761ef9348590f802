package postgres

import (
	"context"

	"hyperlocal/internal/domain"
)

// ListWithdrawals lists withdrawals of one kind newest first, optionally by status.
func (c *Conn) ListWithdrawals(ctx context.Context, kind domain.WithdrawalKind, status string, p domain.Page) ([]domain.Withdrawal, int64, error) {
	var total int64
	if err := c.c.QueryRow(ctx,
		"SELECT COUNT(*) FROM withdrawals WHERE kind = $1 AND ($2 = '' OR status = $2)",
		string(kind), status,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := c.c.Query(ctx,
		`SELECT id, kind, account_id, amount, status, notes, created_at, updated_at
		 FROM withdrawals WHERE kind = $1 AND ($2 = '' OR status = $2)
		 ORDER BY id DESC LIMIT $3 OFFSET $4`,
		string(kind), status, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.Withdrawal{}
	for rows.Next() {
		var (
			w domain.Withdrawal
			k string
		)
		if err := rows.Scan(&w.ID, &k, &w.AccountID, &w.Amount, &w.Status, &w.Notes, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		w.Kind = domain.WithdrawalKind(k)
		out = append(out, w)
	}
	return out, total, rows.Err()
}

// UpdateWithdrawal sets the status of a withdrawal and, when given, its notes.
func (c *Conn) UpdateWithdrawal(ctx context.Context, kind domain.WithdrawalKind, id uint64, status string, notes *string) (bool, error) {
	tag, err := c.c.Exec(ctx,
		`UPDATE withdrawals SET status = $3, notes = COALESCE($4, notes), updated_at = now()
		 WHERE id = $1 AND kind = $2`,
		id, string(kind), status, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountPendingWithdrawals counts pending withdrawals of every kind.
func (c *Conn) CountPendingWithdrawals(ctx context.Context) (int64, error) {
	var n int64
	err := c.c.QueryRow(ctx,
		"SELECT COUNT(*) FROM withdrawals WHERE status = $1", domain.WithdrawalPending).Scan(&n)
	return n, err
}

// ListSystemUpdates lists applied updates newest first.
func (c *Conn) ListSystemUpdates(ctx context.Context) ([]domain.SystemUpdate, error) {
	rows, err := c.c.Query(ctx,
		"SELECT id, version, notes, applied_by, created_at FROM system_updates ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.SystemUpdate{}
	for rows.Next() {
		var u domain.SystemUpdate
		if err := rows.Scan(&u.ID, &u.Version, &u.Notes, &u.AppliedBy, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CreateSystemUpdate records an applied update.
func (c *Conn) CreateSystemUpdate(ctx context.Context, version, notes string, appliedBy uint64) (*domain.SystemUpdate, error) {
	var u domain.SystemUpdate
	err := c.c.QueryRow(ctx,
		`INSERT INTO system_updates (version, notes, applied_by) VALUES ($1, $2, $3)
		 RETURNING id, version, notes, applied_by, created_at`,
		version, notes, appliedBy,
	).Scan(&u.ID, &u.Version, &u.Notes, &u.AppliedBy, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
