package security

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("test-secret-key")
	t0         = time.Unix(1_700_000_000, 0)
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	tok, err := Issue(testSecret, 7, t0)
	require.NoError(t, err)

	claims, err := Verify(testSecret, tok, t0)
	require.NoError(t, err)
	assert.Equal(t, Claims{Sub: 7, Iat: t0.Unix(), Exp: t0.Unix() + 86_400}, claims)
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	tok, err := Issue(testSecret, 42, t0)
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"at issue", t0, nil},
		{"one hour later", t0.Add(time.Hour), nil},
		{"last valid second", t0.Add(TokenTTL - time.Second), nil},
		{"last valid instant", t0.Add(TokenTTL - time.Nanosecond), nil},
		{"exp equals now", t0.Add(TokenTTL), ErrExpired},
		{"one second after exp", t0.Add(TokenTTL + time.Second), ErrExpired},
		{"before issue", t0.Add(-time.Minute), ErrNotYetValid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := Verify(testSecret, tok, tc.at)
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, uint64(42), claims.Sub)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	for _, id := range []uint64{0, 1, 9, 1 << 40} {
		tok, err := Issue([]byte("secret-one"), id, t0)
		require.NoError(t, err)

		_, err = Verify([]byte("secret-two"), tok, t0)
		assert.ErrorIs(t, err, ErrBadSignature)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	tok, err := Issue(testSecret, 7, t0)
	require.NoError(t, err)
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	forged, err := json.Marshal(Claims{Sub: 1, Iat: t0.Unix(), Exp: t0.Unix() + 86_400})
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = Verify(testSecret, strings.Join(parts, "."), t0)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerify_Malformed(t *testing.T) {
	for _, tok := range []string{"", "abc", "a.b", "a.b.c", "....", "eyJhbGciOiJIUzI1NiJ9..sig"} {
		_, err := Verify(testSecret, tok, t0)
		assert.ErrorIs(t, err, ErrMalformed, "token %q", tok)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{Sub: 7, Iat: t0.Unix(), Exp: t0.Add(TokenTTL).Unix()}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = Verify(testSecret, none, t0)
	assert.Error(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSecret)
	require.NoError(t, err)
	_, err = Verify(testSecret, hs512, t0)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerify_MissingExpiry(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Sub: 7, Iat: t0.Unix()}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = Verify(testSecret, tok, t0)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestIssue_WireFormat(t *testing.T) {
	tok, err := Issue(testSecret, 7, t0)
	require.NoError(t, err)
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.NotContains(t, p, "=")
	}

	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"alg":"HS256","typ":"JWT"}`, string(header))

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"sub":7,"iat":1700000000,"exp":1700086400}`, string(payload))
}

func TestTokenCodec_Clock(t *testing.T) {
	now := t0
	codec := NewTokenCodec("codec-secret").WithClock(func() time.Time { return now })

	tok, err := codec.Issue(9)
	require.NoError(t, err)

	claims, err := codec.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), claims.Sub)

	now = t0.Add(TokenTTL + time.Second)
	_, err = codec.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}
