// Package encryption protects secrets at rest, primarily the GitHub token.
package encryption

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
)

// Service handles encryption/decryption of sensitive values.
type Service struct {
	key *fernet.Key
}

// NewService creates an encryption service with the provided fernet key.
func NewService(keyString string) (*Service, error) {
	if keyString == "" {
		return nil, fmt.Errorf("encryption key cannot be empty")
	}

	key, err := fernet.DecodeKey(keyString)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	return &Service{key: key}, nil
}

// GenerateKey produces a new random fernet key in its encoded form.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("generating encryption key: %w", err)
	}
	return key.Encode(), nil
}

// Encrypt encrypts plaintext and returns a base64-encoded token.
func (e *Service) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil // Don't encrypt empty strings
	}

	token, err := fernet.EncryptAndSign([]byte(plaintext), e.key)
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(token), nil
}

// Decrypt decrypts a base64-encoded token and returns plaintext.
func (e *Service) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	tokenBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("invalid token format: %w", err)
	}

	// TTL of 100 years - stored credentials must not expire
	plaintext := fernet.VerifyAndDecrypt(tokenBytes, time.Hour*24*365*100, []*fernet.Key{e.key})
	if plaintext == nil {
		return "", fmt.Errorf("failed to decrypt token: invalid or expired")
	}

	return string(plaintext), nil
}
