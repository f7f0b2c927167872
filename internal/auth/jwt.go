// Package auth issues session tokens and checks the shared admin passcode.
//
// Neither is a security boundary: the group is small and trusted, and the
// passcode only keeps casual users from seeing admin controls.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Session is the ambient context of every ledger operation.
type Session struct {
	UserName string
	IsAdmin  bool
}

// SessionManager handles JWT token generation and validation.
type SessionManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// Claims represents the custom JWT claims for a user session.
type Claims struct {
	UserName string `json:"user_name"`
	Admin    bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// NewSessionManager creates a new manager with the given secret and token duration.
func NewSessionManager(secretKey string, tokenDuration time.Duration) *SessionManager {
	return &SessionManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Generate creates a new token for the session.
func (m *SessionManager) Generate(s Session) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserName: s.UserName,
		Admin:    s.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserName,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and validates a token, returning the session it carries.
func (m *SessionManager) Validate(tokenString string) (Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			// Verify the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserName == "" {
		return Session{}, ErrInvalidToken
	}

	return Session{UserName: claims.UserName, IsAdmin: claims.Admin}, nil
}
