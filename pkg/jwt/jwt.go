package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidClaim = errors.New("invalid token claims")
)

// AccessClaims are the claims the auth provider puts in its access tokens
type AccessClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Inspector reads access tokens issued by the auth provider. With a secret it
// verifies the HS256 signature and expiry; without one it only decodes claims
// and leaves verification to the provider.
type Inspector struct {
	secret []byte
}

// NewInspector creates a new Inspector
func NewInspector(secret string) *Inspector {
	return &Inspector{secret: []byte(secret)}
}

// Verifies reports whether the inspector checks signatures
func (i *Inspector) Verifies() bool {
	return len(i.secret) > 0
}

// Inspect returns the claims of tokenString
func (i *Inspector) Inspect(tokenString string) (*AccessClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &AccessClaims{}

	if !i.Verifies() {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if claims.Subject == "" {
			return nil, ErrInvalidClaim
		}
		return claims, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidClaim
	}

	return claims, nil
}

// ExpiresAtTime returns the token expiry or the zero time when absent
func (c *AccessClaims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
