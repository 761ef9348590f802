// Package security implements password hashing and bearer token signing.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when hashing an empty password.
var ErrEmptyPassword = errors.New("password is empty")

// Upper bounds accepted when decoding a stored hash.
const (
	maxMemory     = 1 << 20 // KiB
	maxIterations = 16
)

// Argon2 hashes passwords with argon2id and verifies argon2id or legacy bcrypt hashes.
// Hashes use the PHC string format: $argon2id$v=19$m=...,t=...,p=...$salt$key.
type Argon2 struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	dummyOnce sync.Once
	dummy     string
}

// NewArgon2 returns a hasher with interactive-class cost.
//
// @ref https://cheatsheetseries.owasp.org/cheatsheets/Password_Storage_Cheat_Sheet.html
func NewArgon2() *Argon2 {
	a := &Argon2{
		Memory:      19 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	a.dummyOnce.Do(a.initDummy)
	return a
}

// Hash derives a new hash with a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, a.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify reports whether password matches the stored hash. It never fails: empty
// passwords and unparseable hashes yield false.
func (a *Argon2) Verify(password, stored string) bool {
	if password == "" {
		return false
	}

	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}

	p, salt, key, err := decodeArgon2id(stored)
	if err != nil {
		return false
	}

	// The derived key has the stored key's length, so the comparison below always
	// walks the full key.
	computed := argon2.IDKey([]byte(password), salt, p.iterations, p.memory, p.parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, computed) == 1
}

// VerifyDummy burns the same work as a real verification against a hash that no
// password matches. Callers use it when no stored hash exists for the account.
func (a *Argon2) VerifyDummy(password string) {
	a.dummyOnce.Do(a.initDummy)
	if password == "" {
		password = "\x00"
	}
	_ = a.Verify(password, a.dummy)
}

// initDummy derives the hash VerifyDummy checks against. NewArgon2 runs it up
// front so the first missing-user login costs one derivation, like any other.
func (a *Argon2) initDummy() {
	if h, err := a.Hash("dummy-password-for-timing"); err == nil {
		a.dummy = h
	}
}

// NeedsRehash reports whether stored was produced by a legacy scheme or with
// parameters other than the hasher's current ones.
func (a *Argon2) NeedsRehash(stored string) bool {
	if isBcrypt(stored) {
		return true
	}
	p, _, key, err := decodeArgon2id(stored)
	if err != nil {
		return true
	}
	return p.memory != a.Memory || p.iterations != a.Iterations ||
		p.parallelism != a.Parallelism || uint32(len(key)) != a.KeyLength
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

func decodeArgon2id(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, errors.New("unsupported algorithm")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported version %d", version)
	}

	var parallelism uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if p.memory == 0 || p.memory > maxMemory || p.iterations == 0 || p.iterations > maxIterations ||
		parallelism == 0 || parallelism > 255 {
		return p, nil, nil, errors.New("parameters out of range")
	}
	p.parallelism = uint8(parallelism)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errors.New("invalid salt encoding")
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errors.New("invalid key encoding")
	}

	return p, salt, key, nil
}
