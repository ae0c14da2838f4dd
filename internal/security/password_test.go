package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("Abcdef12")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if hash == "Abcdef12" {
		t.Fatalf("hash must never equal the plaintext")
	}

	if !h.Verify(hash, "Abcdef12") {
		t.Fatalf("expected password to verify")
	}

	if h.Verify(hash, "abcdef12") {
		t.Fatalf("expected wrong password to be rejected")
	}
}

func TestHasher_HashIsSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	a, err := h.Hash("Abcdef12")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := h.Hash("Abcdef12")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if a == b {
		t.Fatalf("expected two hashes of the same password to differ")
	}
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	if h.Verify("not-a-bcrypt-hash", "Abcdef12") {
		t.Fatalf("expected malformed hash to be rejected")
	}
}

func TestHasher_HashTooLong(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", 100))
	if !errors.Is(err, ErrHashingFailed) {
		t.Fatalf("expected ErrHashingFailed, got %v", err)
	}
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewHasher(99)

	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", h.cost)
	}
}
