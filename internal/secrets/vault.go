// Package secrets seals session values before they touch disk.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

//nolint:gochecknoglobals // sentinel error
var ErrInvalidKey = errors.New("secrets: invalid encryption key")

//nolint:gochecknoglobals // sentinel error
var ErrMalformed = errors.New("secrets: malformed sealed value")

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

// Vault seals and opens values with AES-256-GCM. Each value is bound to a
// label (the session key it is stored under) so sealed values cannot be
// moved between keys.
type Vault struct {
	aead cipher.AEAD
}

// NewVault creates a Vault with the given 32-byte key.
func NewVault(key []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewVault: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewVault: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// ParseKey decodes a hex-encoded 32-byte key as found in GARAGE_SESSION_KEY.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secrets.ParseKey: %w", ErrInvalidKey)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("secrets.ParseKey: got %d bytes: %w", len(key), ErrInvalidKey)
	}
	return key, nil
}

// Seal encrypts plaintext for label and returns base64(nonce || ciphertext).
func (v *Vault) Seal(label, plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets.Seal: generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), []byte(label))

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. It fails if the value was sealed under another label.
func (v *Vault) Open(label, sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("secrets.Open: %w", ErrMalformed)
	}

	nonceSize := v.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("secrets.Open: too short: %w", ErrMalformed)
	}

	plaintext, err := v.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(label))
	if err != nil {
		return "", fmt.Errorf("secrets.Open: %w", err)
	}

	return string(plaintext), nil
}
