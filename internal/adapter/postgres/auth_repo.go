package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hyperlocal/internal/domain"
)

const userColumns = `id, name, email, password, mobile, referral_code, reward_points::text,
	status, access_panel, country, iso_2, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Mobile, &u.ReferralCode,
		&u.RewardPoints, &u.Status, &u.AccessPanel, &u.Country, &u.ISO2, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail retrieves a user by email.
func (c *Conn) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(c.c.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

// GetByEmailAndPanel retrieves a user by email within one access panel.
func (c *Conn) GetByEmailAndPanel(ctx context.Context, email, panel string) (*domain.User, error) {
	return scanUser(c.c.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1 AND access_panel = $2", email, panel))
}

// GetByID retrieves a user by ID.
func (c *Conn) GetByID(ctx context.Context, id uint64) (*domain.User, error) {
	return scanUser(c.c.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

// Create creates a new user.
func (c *Conn) Create(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	u, err := scanUser(c.c.QueryRow(ctx,
		`INSERT INTO users (name, email, password, mobile, status, access_panel, country, iso_2)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+userColumns,
		nu.Name, nu.Email, nu.PasswordHash, nu.Mobile, nu.Status, nu.AccessPanel, nu.Country, nu.ISO2,
	))
	if err != nil {
		return nil, emailConflict(err)
	}
	if u == nil {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of p.
func (c *Conn) UpdateProfile(ctx context.Context, id uint64, p domain.ProfileUpdate) (bool, error) {
	tag, err := c.c.Exec(ctx,
		`UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			mobile = COALESCE($4, mobile),
			updated_at = now()
		 WHERE id = $1`,
		id, p.Name, p.Email, p.Mobile,
	)
	if err != nil {
		return false, emailConflict(err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdatePassword replaces the stored password hash.
func (c *Conn) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := c.c.Exec(ctx,
		"UPDATE users SET password = $2, updated_at = now() WHERE id = $1", id, passwordHash)
	return err
}

// Count returns the total number of users.
func (c *Conn) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.c.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// emailConflict maps a unique violation on users.email to domain.ErrEmailTaken.
func emailConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "users_email_key" {
		return domain.ErrEmailTaken
	}
	return err
}
