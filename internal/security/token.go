package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of an issued bearer token.
const TokenTTL = 24 * time.Hour

// Verification failures. Callers at the HTTP boundary collapse all of them into one
// generic 401.
var (
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature invalid")
	ErrExpired      = errors.New("token expired")
	ErrNotYetValid  = errors.New("token not yet valid")
)

// Claims is the token payload. Times are seconds since the Unix epoch.
type Claims struct {
	Sub uint64 `json:"sub"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
}

var _ jwt.Claims = Claims{}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Exp == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.Iat == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Iat, 0)), nil
}

func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error)              { return "", nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

func (c Claims) GetSubject() (string, error) {
	return strconv.FormatUint(c.Sub, 10), nil
}

// Issue signs {sub, iat, exp} with HS256. exp is iat plus TokenTTL.
func Issue(secret []byte, userID uint64, now time.Time) (string, error) {
	iat := now.Unix()
	claims := Claims{
		Sub: userID,
		Iat: iat,
		Exp: iat + int64(TokenTTL/time.Second),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks the signature first, then requires iat <= now < exp.
func Verify(secret []byte, token string, now time.Time) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, classify(err)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrNotYetValid, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// TokenCodec binds Issue and Verify to the process-wide secret and a clock.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec copies secret; later changes to the caller's string cannot affect it.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), now: time.Now}
}

// WithClock returns a codec sharing the secret but reading time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	return &TokenCodec{secret: c.secret, now: now}
}

// Issue signs a token for userID valid from now for TokenTTL.
func (c *TokenCodec) Issue(userID uint64) (string, error) {
	return Issue(c.secret, userID, c.now())
}

// Verify validates token against the codec's secret at the codec's current time.
func (c *TokenCodec) Verify(token string) (Claims, error) {
	return Verify(c.secret, token, c.now())
}
