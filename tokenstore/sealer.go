package tokenstore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of a raw Sealer key in bytes.
const KeySize = chacha20poly1305.KeySize

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	minSaltSize  = 16
)

// Sealer encrypts token values before they reach a durable backend. Each value
// is bound to its account id and kind so a sealed value copied to another key
// fails to open.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer creates a Sealer from a raw 32 byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidSecret, KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("[NewSealer] %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewPassphraseSealer derives the key from a passphrase with Argon2id.
// The salt must be at least 16 bytes and stable across process restarts.
func NewPassphraseSealer(passphrase string, salt []byte) (*Sealer, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: passphrase cannot be empty", ErrInvalidSecret)
	}
	if len(salt) < minSaltSize {
		return nil, fmt.Errorf("%w: salt must be at least %d bytes", ErrInvalidSecret, minSaltSize)
	}
	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, KeySize)
	return NewSealer(key)
}

// GenerateKey returns a random key suitable for NewSealer.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("[GenerateKey] %w", err)
	}
	return key, nil
}

// Seal encrypts value and returns base64 text of nonce || ciphertext.
func (s *Sealer) Seal(accountID string, kind Kind, value string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("[Sealer.Seal] %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(value), additionalData(accountID, kind))
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *Sealer) Open(accountID string, kind Kind, sealed string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealedValue, err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", fmt.Errorf("%w: value too short", ErrSealedValue)
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, additionalData(accountID, kind))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealedValue, err)
	}
	return string(plain), nil
}

func additionalData(accountID string, kind Kind) []byte {
	return []byte(accountID + "\x00" + string(kind))
}
