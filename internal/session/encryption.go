package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks credentials written by Encryptor so values stored
// before a key was configured can still be read.
const sealedPrefix = "enc:v1:"

// Encryptor seals credentials with AES-256-GCM.
//
// Sealed values are sealedPrefix followed by base64(nonce || ciphertext || tag).
// The key must be 32 bytes and must stay the same across restarts.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates an Encryptor for a 32-byte key.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be exactly 32 bytes (256 bits), got %d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt seals plaintext. The empty string stays empty.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Values without the sealed
// prefix are returned unchanged.
func (e *Encryptor) Decrypt(value string) (string, error) {
	encoded, ok := strings.CutPrefix(value, sealedPrefix)
	if !ok {
		return value, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	nonceSize := e.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := e.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

// GenerateKey returns a random 32-byte key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}
	return key, nil
}

// KeyFromBase64 decodes a base64 key. The empty string yields a nil key,
// which disables encryption.
func KeyFromBase64(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d bytes", len(key))
	}
	return key, nil
}

// EncryptedStore seals credentials before delegating to another Store.
type EncryptedStore struct {
	Store
	enc *Encryptor
}

// NewEncryptedStore wraps inner.
func NewEncryptedStore(inner Store, enc *Encryptor) *EncryptedStore {
	return &EncryptedStore{Store: inner, enc: enc}
}

// GetSession returns the session with its credential decrypted.
func (s *EncryptedStore) GetSession(ctx context.Context, userID string) (*Session, error) {
	sess, err := s.Store.GetSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.Credential, err = s.enc.Decrypt(sess.Credential); err != nil {
		return nil, fmt.Errorf("decrypt credential: %w", err)
	}
	return sess, nil
}

// SaveCredential encrypts credential and stores it.
func (s *EncryptedStore) SaveCredential(ctx context.Context, userID, credential string) error {
	sealed, err := s.enc.Encrypt(credential)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}
	return s.Store.SaveCredential(ctx, userID, sealed)
}
