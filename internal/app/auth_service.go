package app

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"hyperlocal/internal/domain"
)

// TokenType is the scheme clients send tokens under.
const TokenType = "Bearer"

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string              `json:"token"`
	User  domain.UserResponse `json:"user"`
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	Token     string              `json:"token"`
	TokenType string              `json:"token_type"`
	User      domain.UserResponse `json:"user"`
}

// RegisterInput is a customer sign-up request.
type RegisterInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Mobile               string `json:"mobile"`
	Country              string `json:"country"`
	ISO2                 string `json:"iso2"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// PasswordChange is a request to replace the caller's password.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AuthService handles credentials, tokens and the caller's own profile.
type AuthService struct {
	store  domain.Store
	hasher PasswordHasher
	tokens TokenIssuer
	log    logrus.FieldLogger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store domain.Store, hasher PasswordHasher, tokens TokenIssuer, log logrus.FieldLogger) *AuthService {
	return &AuthService{store: store, hasher: hasher, tokens: tokens, log: log}
}

// AdminLogin authenticates a user whose access panel is admin.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	return s.login(ctx, email, password, func(u domain.UserRepository) (*domain.User, error) {
		return u.GetByEmailAndPanel(ctx, email, domain.AccessPanelAdmin)
	})
}

// ClientLogin authenticates any user.
func (s *AuthService) ClientLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	return s.login(ctx, email, password, func(u domain.UserRepository) (*domain.User, error) {
		return u.GetByEmail(ctx, email)
	})
}

func (s *AuthService) login(ctx context.Context, email, password string, find func(domain.UserRepository) (*domain.User, error)) (*LoginResult, error) {
	if email == "" {
		return nil, domain.BadRequest("email is required")
	}
	if password == "" {
		return nil, domain.BadRequest("password is required")
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	user, err := find(conn.Users())
	if err != nil {
		return nil, dbErr(err)
	}
	if user == nil {
		s.hasher.VerifyDummy(password)
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, conn.Users(), user.ID, password)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.Crypto(err)
	}
	return &LoginResult{Token: token, User: user.Response()}, nil
}

// rehash upgrades a legacy or outdated hash. Failure does not block the login.
func (s *AuthService) rehash(ctx context.Context, users domain.UserRepository, id uint64, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = users.UpdatePassword(ctx, id, hash)
	}
	if err != nil {
		s.log.WithError(err).WithField("user_id", id).Warn("password rehash failed")
		return
	}
	s.log.WithField("user_id", id).Info("password rehashed")
}

// Logout is stateless: tokens expire on their own.
func (s *AuthService) Logout(ctx context.Context) error {
	return nil
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Name == "":
		return nil, domain.BadRequest("name is required")
	case in.Email == "":
		return nil, domain.BadRequest("email is required")
	case in.Password == "":
		return nil, domain.BadRequest("password is required")
	case in.Password != in.PasswordConfirmation:
		return nil, domain.BadRequest("Passwords do not match")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, domain.Crypto(err)
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	existing, err := conn.Users().GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, dbErr(err)
	}
	if existing != nil {
		return nil, domain.BadRequest("Email already registered")
	}

	nu := domain.NewUser{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Mobile:       in.Mobile,
		Status:       "active",
		AccessPanel:  domain.AccessPanelUser,
	}
	if in.Country != "" {
		nu.Country = &in.Country
	}
	if in.ISO2 != "" {
		nu.ISO2 = &in.ISO2
	}
	user, err := conn.Users().Create(ctx, nu)
	if err != nil {
		return nil, userWriteErr(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.Crypto(err)
	}
	return &RegisterResult{Token: token, TokenType: TokenType, User: user.Response()}, nil
}

// Me returns the principal's user, read fresh from the database.
func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.UserResponse, error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	user, err := conn.Users().GetByID(ctx, p.UserID)
	if err != nil {
		return nil, dbErr(err)
	}
	if user == nil {
		return nil, domain.NotFound("User")
	}
	r := user.Response()
	return &r, nil
}

// UpdateProfile changes the principal's name, email or mobile.
func (s *AuthService) UpdateProfile(ctx context.Context, p domain.Principal, u domain.ProfileUpdate) (*domain.UserResponse, error) {
	if u.Email != nil && strings.TrimSpace(*u.Email) == "" {
		return nil, domain.BadRequest("email must not be empty")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, domain.BadRequest("name must not be empty")
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	if u.Email != nil {
		other, err := conn.Users().GetByEmail(ctx, *u.Email)
		if err != nil {
			return nil, dbErr(err)
		}
		if other != nil && other.ID != p.UserID {
			return nil, domain.BadRequest("Email already registered")
		}
	}

	ok, err := conn.Users().UpdateProfile(ctx, p.UserID, u)
	if err != nil {
		return nil, userWriteErr(err)
	}
	if !ok {
		return nil, domain.NotFound("User")
	}

	user, err := conn.Users().GetByID(ctx, p.UserID)
	if err != nil {
		return nil, dbErr(err)
	}
	if user == nil {
		return nil, domain.NotFound("User")
	}
	r := user.Response()
	return &r, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, p domain.Principal, in PasswordChange) error {
	if in.NewPassword == "" {
		return domain.BadRequest("new_password is required")
	}
	if in.NewPassword != in.ConfirmPassword {
		return domain.BadRequest("New passwords do not match")
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return err
	}
	defer conn.Release()

	user, err := conn.Users().GetByID(ctx, p.UserID)
	if err != nil {
		return dbErr(err)
	}
	if user == nil {
		return domain.NotFound("User")
	}
	if !s.hasher.Verify(in.CurrentPassword, user.PasswordHash) {
		return domain.BadRequest("Incorrect current password")
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return domain.Crypto(err)
	}
	if err := conn.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return dbErr(err)
	}
	return nil
}

// LoginWithEmail issues a token for an admin already authenticated by the
// identity provider. Accounts are not auto-provisioned.
func (s *AuthService) LoginWithEmail(ctx context.Context, email string) (*LoginResult, error) {
	conn, err := lease(ctx, s.store)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	user, err := conn.Users().GetByEmailAndPanel(ctx, email, domain.AccessPanelAdmin)
	if err != nil {
		return nil, dbErr(err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.Crypto(err)
	}
	return &LoginResult{Token: token, User: user.Response()}, nil
}

// EnsureAdmin creates an admin account for email unless one already exists.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, domain.BadRequest("admin email and password are required")
	}

	conn, err := lease(ctx, s.store)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	existing, err := conn.Users().GetByEmail(ctx, email)
	if err != nil {
		return false, dbErr(err)
	}
	if existing != nil {
		return false, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, domain.Crypto(err)
	}
	_, err = conn.Users().Create(ctx, domain.NewUser{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       "active",
		AccessPanel:  domain.AccessPanelAdmin,
	})
	if err != nil {
		return false, dbErr(err)
	}
	return true, nil
}

// userWriteErr reports a lost race on the email uniqueness check the same way
// as the check itself.
func userWriteErr(err error) error {
	if errors.Is(err, domain.ErrEmailTaken) {
		return domain.BadRequest("Email already registered")
	}
	return dbErr(err)
}
