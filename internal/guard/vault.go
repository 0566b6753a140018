package guard

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/crypto"
)

// ErrIntegrity means an encrypted payload's checksum did not match its
// ciphertext. Distinct from crypto.ErrDecrypt: the payload was corrupted
// or tampered with in storage, not merely sealed under a different key.
var ErrIntegrity = errors.New("vault: checksum mismatch, payload corrupted or tampered")

// EncryptedPayload is the storable form of encrypted content. Checksum is
// computed over the raw ciphertext bytes so integrity can be verified
// without attempting decryption.
type EncryptedPayload struct {
	Ciphertext  string    `json:"ciphertext"`
	Checksum    string    `json:"checksum"`
	Algorithm   string    `json:"algorithm"`
	EncryptedAt time.Time `json:"encrypted_at"`
}

const vaultAlgorithm = "AES-256-GCM"

// Vault encrypts content payloads and maintains per-language encrypted
// archives on disk.
type Vault struct {
	enc        *crypto.Encryptor
	archiveDir string
}

// NewVault derives the vault's encryptor from masterSecret and prepares
// the archive directory.
func NewVault(masterSecret []byte, archiveDir string) (*Vault, error) {
	enc, err := crypto.DeriveEncryptor(masterSecret, "content-archive")
	if err != nil {
		return nil, fmt.Errorf("derive vault encryptor: %w", err)
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Vault{enc: enc, archiveDir: archiveDir}, nil
}

// Encrypt seals plaintext and returns the storable payload.
func (v *Vault) Encrypt(plaintext []byte) (EncryptedPayload, error) {
	sealed, err := v.enc.Seal(plaintext)
	if err != nil {
		return EncryptedPayload{}, fmt.Errorf("seal content: %w", err)
	}
	return EncryptedPayload{
		Ciphertext:  base64.StdEncoding.EncodeToString(sealed),
		Checksum:    crypto.Checksum(sealed),
		Algorithm:   vaultAlgorithm,
		EncryptedAt: time.Now().UTC(),
	}, nil
}

// Decrypt verifies the payload's checksum against its ciphertext and only
// then opens it. A checksum mismatch returns ErrIntegrity without any
// decryption attempt.
func (v *Vault) Decrypt(payload EncryptedPayload) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(payload.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if crypto.Checksum(sealed) != payload.Checksum {
		return nil, ErrIntegrity
	}
	plaintext, err := v.enc.Open(sealed)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// ContentEnvelope is the canonical plaintext form sealed by the vault.
// Metadata travels inside the ciphertext so a decrypted item is
// self-describing.
type ContentEnvelope struct {
	ContentID string    `json:"content_id"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// EncryptEnvelope serializes the envelope to canonical JSON and seals it.
func (v *Vault) EncryptEnvelope(env ContentEnvelope) (EncryptedPayload, error) {
	if env.CreatedAt.IsZero() {
		env.CreatedAt = time.Now().UTC()
	}
	plaintext, err := json.Marshal(env)
	if err != nil {
		return EncryptedPayload{}, fmt.Errorf("encode content envelope: %w", err)
	}
	return v.Encrypt(plaintext)
}

// DecryptEnvelope verifies and opens a payload produced by EncryptEnvelope.
func (v *Vault) DecryptEnvelope(payload EncryptedPayload) (ContentEnvelope, error) {
	plaintext, err := v.Decrypt(payload)
	if err != nil {
		return ContentEnvelope{}, err
	}
	var env ContentEnvelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return ContentEnvelope{}, fmt.Errorf("decode content envelope: %w", err)
	}
	return env, nil
}

// ArchiveItem is one piece of content going into or coming out of an
// archive.
type ArchiveItem struct {
	OriginalID string `json:"original_id"`
	Content    string `json:"content"`
}

// ArchiveEntry is the stored form of one archived item. Checksum covers
// the sealed bytes of that entry only.
type ArchiveEntry struct {
	EncryptedData string `json:"encrypted_data"`
	Checksum      string `json:"checksum"`
	OriginalID    string `json:"original_id"`
}

// CreateArchive encrypts each item individually and writes the batch as
// one file per (language, timestamp) under <archiveDir>/encrypted_<lang>/.
// Archives are write-once.
func (v *Vault) CreateArchive(language string, items []ArchiveItem) (string, error) {
	entries := make([]ArchiveEntry, 0, len(items))
	for _, item := range items {
		payload, err := v.EncryptEnvelope(ContentEnvelope{
			ContentID: item.OriginalID,
			Content:   item.Content,
			Language:  language,
		})
		if err != nil {
			return "", fmt.Errorf("encrypt archive item %s: %w", item.OriginalID, err)
		}
		entries = append(entries, ArchiveEntry{
			EncryptedData: payload.Ciphertext,
			Checksum:      payload.Checksum,
			OriginalID:    item.OriginalID,
		})
	}

	dir := filepath.Join(v.archiveDir, "encrypted_"+language)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create language archive directory: %w", err)
	}

	name := fmt.Sprintf("archive_%s_%s.enc", language, time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", fmt.Errorf("write archive %s: %w", path, err)
	}
	return path, nil
}

// ReadArchive loads an archive file and returns its items, verifying each
// entry's checksum before decrypting it.
func (v *Vault) ReadArchive(path string) ([]ArchiveItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	var entries []ArchiveEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode archive %s: %w", path, err)
	}

	items := make([]ArchiveItem, 0, len(entries))
	for _, entry := range entries {
		env, err := v.DecryptEnvelope(EncryptedPayload{
			Ciphertext: entry.EncryptedData,
			Checksum:   entry.Checksum,
			Algorithm:  vaultAlgorithm,
		})
		if err != nil {
			return nil, fmt.Errorf("archive entry %s: %w", entry.OriginalID, err)
		}
		items = append(items, ArchiveItem{OriginalID: entry.OriginalID, Content: env.Content})
	}
	return items, nil
}
