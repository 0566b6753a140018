package crypto

import (
	"errors"
	"testing"
)

func TestDeriveEncryptor(t *testing.T) {
	enc, err := DeriveEncryptor([]byte("test-master-secret-that-is-long"), "content-archive")
	if err != nil {
		t.Fatalf("DeriveEncryptor: %v", err)
	}
	if enc == nil {
		t.Fatal("expected non-nil encryptor")
	}
}

func TestRoundTrip(t *testing.T) {
	enc, err := DeriveEncryptor([]byte("test-master-secret-that-is-long"), "content-archive")
	if err != nil {
		t.Fatalf("DeriveEncryptor: %v", err)
	}

	original := []byte(`{"content":"namaste world","language":"hi"}`)
	sealed, err := enc.Seal(original)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	opened, err := enc.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(opened) != string(original) {
		t.Fatalf("round-trip failed: got %q", opened)
	}
}

func TestDifferentPurposesProduceDifferentKeys(t *testing.T) {
	secret := []byte("test-master-secret-that-is-long")
	enc1, _ := DeriveEncryptor(secret, "purpose-a")
	enc2, _ := DeriveEncryptor(secret, "purpose-b")

	sealed, _ := enc1.Seal([]byte("payload"))
	_, err := enc2.Open(sealed)
	if !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt with different purpose, got %v", err)
	}
}

func TestOpenRejectsShortCiphertext(t *testing.T) {
	enc, _ := DeriveEncryptor([]byte("test-master-secret-that-is-long"), "test")
	_, err := enc.Open([]byte("short"))
	if !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestSealProducesUniqueOutput(t *testing.T) {
	enc, _ := DeriveEncryptor([]byte("test-master-secret-that-is-long"), "test")

	s1, _ := enc.Seal([]byte("same-input"))
	s2, _ := enc.Seal([]byte("same-input"))
	if string(s1) == string(s2) {
		t.Fatal("two seals of same plaintext should differ (random nonce)")
	}
}

func TestChecksumIsStable(t *testing.T) {
	a := Checksum([]byte("data"))
	b := Checksum([]byte("data"))
	if a != b {
		t.Fatal("checksum must be deterministic")
	}
	if a == Checksum([]byte("other")) {
		t.Fatal("different inputs must not collide trivially")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 length 64, got %d", len(a))
	}
}
