//go:generate go run go.uber.org/mock/mockgen -source=codec.go -destination=../mocks/mock_codec.go -package=mocks
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const codecInfo = "ephemeral-chat-message-v1"

// Codec encrypts message bodies before they reach the store.
type Codec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// DecryptionError is returned when a ciphertext cannot be reversed.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decrypt: %s: %v", e.Reason, e.Err)
	}
	return "decrypt: " + e.Reason
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// AEADCodec seals messages with XChaCha20-Poly1305 under a key derived
// from the process secret. Output is base64(nonce || ciphertext || tag).
type AEADCodec struct {
	key []byte
}

// NewAEADCodec derives the message key from secret with HKDF-SHA256.
func NewAEADCodec(secret string) (*AEADCodec, error) {
	if secret == "" {
		return nil, errors.New("crypto: empty secret")
	}

	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(codecInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("crypto: derive key: %w", err)
	}

	return &AEADCodec{key: key}, nil
}

func (c *AEADCodec) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AEADCodec) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", &DecryptionError{Reason: "invalid encoding", Err: err}
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}

	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", &DecryptionError{Reason: fmt.Sprintf("ciphertext too short: %d bytes", len(raw))}
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", &DecryptionError{Reason: "authentication failed", Err: err}
	}

	return string(plaintext), nil
}
