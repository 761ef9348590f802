// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrEmailTaken is returned by repositories when a write collides with another
// user's email.
var ErrEmailTaken = errors.New("email already exists")

// AccessPanelAdmin is the access_panel value that admits a user to the admin surface.
const AccessPanelAdmin = "admin"

// AccessPanelUser is assigned to self-registered customers.
const AccessPanelUser = "user"

// User is a row of the users table. PasswordHash never leaves the service layer.
type User struct {
	ID           uint64
	Name         string
	Email        string
	PasswordHash string
	Mobile       string
	ReferralCode *string
	RewardPoints string
	Status       string
	AccessPanel  *string
	Country      *string
	ISO2         *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user's access panel is the admin panel.
func (u *User) IsAdmin() bool {
	return u.AccessPanel != nil && *u.AccessPanel == AccessPanelAdmin
}

// UserResponse is the public projection of a User.
type UserResponse struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	ReferralCode *string   `json:"referral_code"`
	RewardPoints string    `json:"reward_points"`
	Status       string    `json:"status"`
	AccessPanel  *string   `json:"access_panel"`
	CreatedAt    time.Time `json:"created_at"`
}

// Response strips the password hash and other private columns.
func (u *User) Response() UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Mobile:       u.Mobile,
		ReferralCode: u.ReferralCode,
		RewardPoints: u.RewardPoints,
		Status:       u.Status,
		AccessPanel:  u.AccessPanel,
		CreatedAt:    u.CreatedAt,
	}
}

// NewUser carries the columns needed to insert a user.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Mobile       string
	Status       string
	AccessPanel  string
	Country      *string
	ISO2         *string
}

// ProfileUpdate holds optional profile changes; nil fields are left untouched.
type ProfileUpdate struct {
	Name   *string
	Email  *string
	Mobile *string
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID      uint64
	AccessPanel string
}

// UserRepository defines the port for user persistence operations.
//
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailAndPanel(ctx context.Context, email, panel string) (*User, error)
	GetByID(ctx context.Context, id uint64) (*User, error)
	Create(ctx context.Context, u NewUser) (*User, error)
	UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) (bool, error)
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	Count(ctx context.Context) (int64, error)
}
