package vault

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/wardensec/warden/internal/log"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	v := New(1, log.NewNop())

	tests := []struct {
		name     string
		n        int
		wantHex  int
		wantSame bool
	}{
		{name: "default length", n: 0, wantHex: 64},
		{name: "explicit length", n: 16, wantHex: 32},
		{name: "negative uses default", n: -5, wantHex: 64},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token, err := v.GenerateToken(tt.n)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}
			if len(token) != tt.wantHex {
				t.Errorf("token length = %d, want %d", len(token), tt.wantHex)
			}
			if _, err := hex.DecodeString(token); err != nil {
				t.Errorf("token %q is not hex: %v", token, err)
			}
		})
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	t.Parallel()

	v := New(1, log.NewNop())
	a, _ := v.GenerateToken(32)
	b, _ := v.GenerateToken(32)
	if a == b {
		t.Error("two generated tokens are identical")
	}
}

func TestHashPassword_Shape(t *testing.T) {
	t.Parallel()

	v := New(2, log.NewNop())
	cred, err := v.HashPassword(context.Background(), "correct horse battery staple", "")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if len(cred.Salt) != 32 {
		t.Errorf("auto-generated salt length = %d hex chars, want 32", len(cred.Salt))
	}
	if len(cred.Hash) != 128 {
		t.Errorf("hash length = %d hex chars, want 128", len(cred.Hash))
	}
}

func TestHashPassword_DeterministicWithSalt(t *testing.T) {
	t.Parallel()

	v := New(2, log.NewNop())
	ctx := context.Background()

	salt := "00112233445566778899aabbccddeeff"
	a, err := v.HashPassword(ctx, "hunter2", salt)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	b, err := v.HashPassword(ctx, "hunter2", salt)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if a.Hash != b.Hash {
		t.Error("same password and salt produced different hashes")
	}
	if a.Salt != salt {
		t.Errorf("supplied salt was replaced: got %q", a.Salt)
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	v := New(2, log.NewNop())
	ctx := context.Background()

	cred, err := v.HashPassword(ctx, "s3cret", "")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !v.VerifyPassword(ctx, "s3cret", cred.Hash, cred.Salt) {
		t.Error("VerifyPassword() = false for correct password")
	}
	if v.VerifyPassword(ctx, "wrong", cred.Hash, cred.Salt) {
		t.Error("VerifyPassword() = true for wrong password")
	}
}

func TestVerifyPassword_ErrorsAreFailures(t *testing.T) {
	t.Parallel()

	v := New(2, log.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		hash string
		salt string
	}{
		{name: "malformed hash", hash: "not-hex!", salt: "00112233445566778899aabbccddeeff"},
		{name: "malformed salt", hash: "aabb", salt: "zzzz"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			// Must return false, never panic or propagate.
			if v.VerifyPassword(ctx, "pw", tt.hash, tt.salt) {
				t.Error("VerifyPassword() = true on malformed input")
			}
		})
	}
}

func TestVerifyPassword_CanceledContext(t *testing.T) {
	t.Parallel()

	v := New(1, log.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if v.VerifyPassword(ctx, "pw", "aabb", "00112233445566778899aabbccddeeff") {
		t.Error("VerifyPassword() = true with canceled context")
	}
}
