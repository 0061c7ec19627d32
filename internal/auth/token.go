package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jafarshop/marketplace/internal/domain"
)

// Principal is the authenticated caller carried by a session token
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   domain.Role
}

type sessionClaims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 session tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the token lifetime
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue creates a signed token for the principal
func (t *TokenIssuer) Issue(p Principal) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := sessionClaims{
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ErrInvalidToken is returned for malformed, tampered or expired tokens
var ErrInvalidToken = errors.New("invalid or expired session token")

// Parse validates a token and returns its principal
func (t *TokenIssuer) Parse(token string) (*Principal, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !claims.Role.IsValid() {
		return nil, ErrInvalidToken
	}
	return &Principal{UserID: userID, Email: claims.Email, Role: claims.Role}, nil
}
