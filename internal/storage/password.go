package storage

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword derives a one-way bcrypt hash for storage. The clear text is
// never persisted.
func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// verifyPassword compares a stored hash with a login attempt. A mismatch is
// reported as ErrInvalidCredentials; any other failure bubbles up.
func verifyPassword(encodedHash, candidate string) error {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(candidate))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return fmt.Errorf("verify password: %w", err)
}
