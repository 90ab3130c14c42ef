// Package authpw implements the shared-password gate. The turnover log has
// no per-user accounts: one bcrypt hash guards write access, and names are
// free-form labels crews sign their notes with.
package authpw

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNotConfigured means no password hash is set; login is disabled.
	ErrNotConfigured = errors.New("shared password not configured")
	// ErrWrongPassword means the submitted password did not match the hash.
	ErrWrongPassword = errors.New("wrong password")
)

type Service struct {
	hash []byte
}

// NewService takes the configured bcrypt hash. An empty hash yields a
// service that rejects every attempt with ErrNotConfigured.
func NewService(hash string) *Service {
	return &Service{hash: []byte(hash)}
}

func (s *Service) Configured() bool {
	return len(s.hash) > 0
}

func (s *Service) Verify(password string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// HashPassword is used by the ops tooling to mint TURNOVER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
