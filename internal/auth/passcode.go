package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/lunchtab/internal/models"
)

// ErrIncorrectCode is returned for a wrong admin passcode.
var ErrIncorrectCode = fmt.Errorf("%w: incorrect code", models.ErrUnauthorized)

// Passcode is the shared admin passcode. Only its bcrypt hash is kept after
// construction.
type Passcode struct {
	hash []byte
}

// NewPasscode hashes the configured passcode.
func NewPasscode(code string) (*Passcode, error) {
	if code == "" {
		return nil, errors.New("admin passcode must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash passcode: %w", err)
	}
	return &Passcode{hash: hash}, nil
}

// Check compares an attempt with the passcode.
func (p *Passcode) Check(attempt string) error {
	if err := bcrypt.CompareHashAndPassword(p.hash, []byte(attempt)); err != nil {
		return ErrIncorrectCode
	}
	return nil
}
