package troopstock

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// EncryptionBackend wraps any backend with AES-256-GCM encryption at rest.
// Inventory records may carry allergen and borrower details, so deployments
// on shared storage can opt in to encrypting every value.
//
// The nonce is prepended to each ciphertext; keys must be 32 bytes.
//
// Exists still sees keys and List still sees key names: only values are
// encrypted, the key layout stays readable.
type EncryptionBackend struct {
	Backend
	key []byte // 32 bytes for AES-256
}

// NewEncryptionBackend wraps a backend with AES-256-GCM encryption.
// Key must be exactly 32 bytes for AES-256.
func NewEncryptionBackend(backend Backend, key []byte) (*EncryptionBackend, error) {
	if len(key) != 32 {
		return nil, WithContext(ErrInvalidConfig, map[string]interface{}{
			"expected_key_length": 32,
			"actual_key_length":   len(key),
			"reason":              "AES-256 requires 32-byte key",
		})
	}

	return &EncryptionBackend{
		Backend: backend,
		key:     key,
	}, nil
}

// Put encrypts data before storing
func (e *EncryptionBackend) Put(ctx context.Context, key string, data []byte) error {
	encrypted, err := e.encrypt(data)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}
	return e.Backend.Put(ctx, key, encrypted)
}

// Get decrypts data after retrieving
func (e *EncryptionBackend) Get(ctx context.Context, key string) ([]byte, error) {
	encrypted, err := e.Backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.decrypt(encrypted)
}

// PutIfMatch encrypts and stores with optimistic locking. ETags are
// computed over the ciphertext by the wrapped backend, which is fine:
// callers only ever compare ETags they got from the same wrapped backend.
func (e *EncryptionBackend) PutIfMatch(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	encrypted, err := e.encrypt(data)
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}
	return e.Backend.PutIfMatch(ctx, key, encrypted, expectedETag)
}

// GetWithETag decrypts data and returns the ciphertext's ETag
func (e *EncryptionBackend) GetWithETag(ctx context.Context, key string) ([]byte, string, error) {
	encrypted, etag, err := e.Backend.GetWithETag(ctx, key)
	if err != nil {
		return nil, "", err
	}
	decrypted, err := e.decrypt(encrypted)
	if err != nil {
		return nil, "", err
	}
	return decrypted, etag, nil
}

// encrypt uses AES-256-GCM with a random nonce
func (e *EncryptionBackend) encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt reverses encryption
func (e *EncryptionBackend) decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, WithContext(ErrInvalidData, map[string]interface{}{
			"reason":     "ciphertext too short",
			"min_length": nonceSize,
			"actual":     len(ciphertext),
		})
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
