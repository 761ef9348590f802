// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"

	"hyperlocal/internal/domain"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) bool
	// VerifyDummy burns the same work as Verify when no stored hash exists.
	VerifyDummy(password string)
	NeedsRehash(stored string) bool
}

// TokenIssuer signs bearer tokens for a user.
type TokenIssuer interface {
	Issue(userID uint64) (string, error)
}

// lease acquires a connection; the caller must Release it.
func lease(ctx context.Context, store domain.Store) (domain.Conn, error) {
	c, err := store.Lease(ctx)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, domain.DBUnavailable(err)
	}
	return c, nil
}

// dbErr classifies a repository error, leaving domain errors untouched.
func dbErr(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.DBError(err)
}
