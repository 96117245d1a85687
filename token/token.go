// Package token stores the GitHub token encrypted at rest and hands it to
// the gateway per call.
package token

import (
	"errors"
	"fmt"

	"github.com/flightdeck-cd/flightdeck/encryption"
	"github.com/flightdeck-cd/flightdeck/repository"
)

const settingKey = "github_token"

// Service reads and writes the configured GitHub token. It implements
// github.TokenSource.
type Service struct {
	settings   repository.SettingsRepository
	encryption *encryption.Service
}

func NewService(settings repository.SettingsRepository, enc *encryption.Service) *Service {
	return &Service{settings: settings, encryption: enc}
}

// Token returns the decrypted token, or empty when none is configured.
func (s *Service) Token() (string, error) {
	stored, err := s.settings.Get(settingKey)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading stored token: %w", err)
	}
	return s.encryption.Decrypt(stored)
}

// Set encrypts and persists the token.
func (s *Service) Set(value string) error {
	if value == "" {
		return fmt.Errorf("token cannot be empty")
	}
	encrypted, err := s.encryption.Encrypt(value)
	if err != nil {
		return err
	}
	return s.settings.Set(settingKey, encrypted)
}

// Clear removes the stored token.
func (s *Service) Clear() error {
	return s.settings.Delete(settingKey)
}
