package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestArgon2_HashAndVerify(t *testing.T) {
	a := NewArgon2()

	hash, err := a.Hash("hunter2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"))

	assert.True(t, a.Verify("hunter2", hash))
	assert.False(t, a.Verify("hunter3", hash))
	assert.False(t, a.Verify("Hunter2", hash))
	assert.False(t, a.Verify("", hash))
}

func TestArgon2_SaltIsRandom(t *testing.T) {
	a := NewArgon2()

	h1, err := a.Hash("same-password")
	require.NoError(t, err)
	h2, err := a.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, a.Verify("same-password", h1))
	assert.True(t, a.Verify("same-password", h2))
}

func TestArgon2_HashRejectsEmpty(t *testing.T) {
	_, err := NewArgon2().Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestArgon2_VerifyMalformedHash(t *testing.T) {
	a := NewArgon2()
	good, err := a.Hash("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	tests := []struct {
		name   string
		stored string
	}{
		{"empty", ""},
		{"plaintext", "pw"},
		{"wrong algorithm", "$argon2i$v=19$m=19456,t=2,p=1$" + parts[4] + "$" + parts[5]},
		{"wrong version", "$argon2id$v=16$m=19456,t=2,p=1$" + parts[4] + "$" + parts[5]},
		{"bad params", "$argon2id$v=19$m=x,t=2,p=1$" + parts[4] + "$" + parts[5]},
		{"huge memory", "$argon2id$v=19$m=999999999,t=2,p=1$" + parts[4] + "$" + parts[5]},
		{"bad salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!$" + parts[5]},
		{"bad key", "$argon2id$v=19$m=19456,t=2,p=1$" + parts[4] + "$!!!"},
		{"too few segments", "$argon2id$v=19$" + parts[4]},
		{"truncated bcrypt", "$2b$10$abc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, a.Verify("pw", tc.stored))
		})
	}
}

func TestArgon2_VerifyShorterStoredKey(t *testing.T) {
	a := NewArgon2()
	short := &Argon2{Memory: a.Memory, Iterations: a.Iterations, Parallelism: a.Parallelism, SaltLength: 16, KeyLength: 16}

	hash, err := short.Hash("pw")
	require.NoError(t, err)

	assert.True(t, a.Verify("pw", hash))
	assert.True(t, a.NeedsRehash(hash))
}

func TestArgon2_LegacyBcrypt(t *testing.T) {
	a := NewArgon2()
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, a.Verify("old-secret", string(legacy)))
	assert.False(t, a.Verify("new-secret", string(legacy)))
	assert.True(t, a.NeedsRehash(string(legacy)))
}

func TestArgon2_NeedsRehash(t *testing.T) {
	a := NewArgon2()
	current, err := a.Hash("pw")
	require.NoError(t, err)
	assert.False(t, a.NeedsRehash(current))

	stronger := NewArgon2()
	stronger.Iterations = 3
	assert.True(t, stronger.NeedsRehash(current))

	assert.True(t, a.NeedsRehash("garbage"))
}

func TestArgon2_VerifyDummy(t *testing.T) {
	a := NewArgon2()
	a.VerifyDummy("anything")
	a.VerifyDummy("")
	assert.NotEmpty(t, a.dummy)
	assert.False(t, a.Verify("anything", a.dummy))
}

func TestNewArgon2_PreparesDummyHash(t *testing.T) {
	a := NewArgon2()
	require.NotEmpty(t, a.dummy)
	assert.True(t, strings.HasPrefix(a.dummy, "$argon2id$"))
	assert.False(t, a.NeedsRehash(a.dummy))

	before := a.dummy
	a.VerifyDummy("x")
	assert.Equal(t, before, a.dummy)
}
