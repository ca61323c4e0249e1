// Package credentials verifies admin logins against configured values.
package credentials

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Static checks one admin account whose password is stored as a bcrypt hash.
type Static struct {
	username string
	hash     []byte
}

// NewStatic builds a verifier from a username and a bcrypt hash.
func NewStatic(username, passwordHash string) (*Static, error) {
	if username == "" {
		return nil, errors.New("admin username is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	return &Static{username: username, hash: []byte(passwordHash)}, nil
}

// NewStaticFromPassword hashes a plain password at boot, for local setups
// that only have ADMIN_PASSWORD.
func NewStaticFromPassword(username, password string) (*Static, error) {
	if password == "" {
		return nil, errors.New("admin password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return NewStatic(username, string(hash))
}

// Verify implements port.CredentialVerifier. The password is checked even
// when the username is wrong, so both paths cost one bcrypt comparison.
func (s *Static) Verify(_ context.Context, username, password string) (bool, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	err := bcrypt.CompareHashAndPassword(s.hash, []byte(password))
	switch {
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("compare password: %w", err)
	}
	return userOK, nil
}
