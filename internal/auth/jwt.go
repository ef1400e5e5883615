// Package auth issues and validates the HS256 bearer tokens used by the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Auth errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
)

// Config contains token settings.
type Config struct {
	SecretKey     string
	TokenDuration time.Duration
}

// Claims are the JWT claims carried by an API token.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies API tokens.
type Authenticator struct {
	secret        []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{
		secret:        []byte(cfg.SecretKey),
		tokenDuration: cfg.TokenDuration,
		now:           time.Now,
	}
}

// IssueToken creates a signed token for subject with the given role.
// A non-positive ttl falls back to the configured token duration.
func (a *Authenticator) IssueToken(subject string, role domain.Role, ttl time.Duration) (string, error) {
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	if ttl <= 0 {
		ttl = a.tokenDuration
	}

	now := a.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the signature and expiry of token and returns its subject and role.
func (a *Authenticator) ValidateToken(_ context.Context, token string) (string, domain.Role, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !claims.Role.IsValid() {
		return "", "", ErrInvalidRole
	}

	return claims.Subject, claims.Role, nil
}
