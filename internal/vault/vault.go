// Package vault provides credential primitives for the gateway: secure token
// generation and scrypt password hashing with constant-time verification.
package vault

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"runtime"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/semaphore"

	"github.com/wardensec/warden/internal/log"
)

// scrypt parameters. N/r/p follow the current interactive-login
// recommendation; keyLen is fixed so stored hashes are always 128 hex chars.
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64

	// DefaultTokenBytes is the token size used when the caller does not
	// specify one.
	DefaultTokenBytes = 32

	saltBytes = 16
)

// Credential is the result of hashing a password. Hash and Salt are
// hex-encoded; the plaintext is never retained.
type Credential struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// Vault generates tokens and hashes/verifies passwords. Hashing is CPU and
// memory bound, so concurrent derivations are gated by a weighted semaphore:
// request goroutines queue for a slot instead of oversubscribing every core.
type Vault struct {
	sem    *semaphore.Weighted
	logger log.Logger
}

// New creates a Vault allowing up to workers concurrent derivations.
// workers <= 0 uses GOMAXPROCS.
func New(workers int, logger log.Logger) *Vault {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Vault{
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger,
	}
}

// GenerateToken returns n cryptographically secure random bytes, hex
// encoded. n <= 0 uses DefaultTokenBytes.
func (v *Vault) GenerateToken(n int) (string, error) {
	if n <= 0 {
		n = DefaultTokenBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword derives a credential from the password. An empty salt
// generates a fresh 16-byte one; a supplied salt must be hex.
func (v *Vault) HashPassword(ctx context.Context, password, salt string) (Credential, error) {
	if salt == "" {
		raw := make([]byte, saltBytes)
		if _, err := rand.Read(raw); err != nil {
			return Credential{}, fmt.Errorf("generating salt: %w", err)
		}
		salt = hex.EncodeToString(raw)
	}

	hash, err := v.derive(ctx, password, salt)
	if err != nil {
		return Credential{}, err
	}

	return Credential{Hash: hex.EncodeToString(hash), Salt: salt}, nil
}

// VerifyPassword re-derives the hash with the stored salt and compares in
// constant time. Any derivation or decoding error is logged and treated as a
// verification failure; it never propagates to the caller.
func (v *Vault) VerifyPassword(ctx context.Context, password, hash, salt string) bool {
	stored, err := hex.DecodeString(hash)
	if err != nil {
		v.logger.Warn("verifying password: stored hash is not hex", "error", err)
		return false
	}

	derived, err := v.derive(ctx, password, salt)
	if err != nil {
		v.logger.Warn("verifying password: derivation failed", "error", err)
		return false
	}

	return subtle.ConstantTimeCompare(derived, stored) == 1
}

// derive runs scrypt under the concurrency gate.
func (v *Vault) derive(ctx context.Context, password, salt string) ([]byte, error) {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil {
		return nil, fmt.Errorf("decoding salt: %w", err)
	}

	if err := v.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring hash worker: %w", err)
	}
	defer v.sem.Release(1)

	key, err := scrypt.Key([]byte(password), rawSalt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}
