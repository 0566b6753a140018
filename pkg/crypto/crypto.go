// Package crypto provides application-level symmetric encryption using
// AES-256-GCM with HKDF key derivation.
//
// Sealed values carry their random nonce as a prefix, so a single []byte
// is the durable unit. Integrity of stored blobs is tracked separately via
// a SHA-256 checksum over the ciphertext (see Checksum).
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrDecrypt indicates AEAD authentication or decryption failed, typically
// a wrong key or tampered ciphertext that still matched its checksum.
var ErrDecrypt = errors.New("crypto: decryption failed")

// Encryptor seals and opens byte payloads. Safe for concurrent use.
type Encryptor struct {
	gcm cipher.AEAD
}

// DeriveEncryptor derives an AES-256 key from an existing secret using HKDF
// and returns an Encryptor. The purpose string isolates this derived key
// from other uses of the same master secret.
func DeriveEncryptor(masterSecret []byte, purpose string) (*Encryptor, error) {
	hkdfReader := hkdf.New(sha256.New, masterSecret, []byte("vaani-sentinel-content-encryption"), []byte(purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		return nil, fmt.Errorf("crypto: HKDF derivation failed: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w", err)
	}
	return &Encryptor{gcm: gcm}, nil
}

// Seal encrypts plaintext and returns nonce||ciphertext.
func (e *Encryptor) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}
	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a value previously produced by Seal.
func (e *Encryptor) Open(sealed []byte) ([]byte, error) {
	nonceSize := e.gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	plaintext, err := e.gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return plaintext, nil
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
