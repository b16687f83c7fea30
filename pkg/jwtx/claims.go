package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes, overridable through configuration.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Role is the coarse authorization level carried in every token.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("jwtx: unknown role %q", s)
	}
	return r, nil
}

// TokenKind tells access and refresh tokens apart. It is signed into the
// token as "token_use" and each kind has its own secret.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Identity is the claim set minted into both tokens of a pair.
type Identity struct {
	Subject string `json:"id"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
}

// Claims are the JWT claims for both token kinds.
type Claims struct {
	jwt.RegisteredClaims

	Email string    `json:"email"`
	Role  Role      `json:"role"`
	Use   TokenKind `json:"token_use"`
}

// NewClaims builds claims for id valid from now for ttl. Every call gets a
// fresh jti so two tokens minted in the same second never collide.
func NewClaims(id Identity, kind TokenKind, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email: id.Email,
		Role:  id.Role,
		Use:   kind,
	}
}

// Identity returns the identity part of the claims.
func (c Claims) Identity() Identity {
	return Identity{
		Subject: c.Subject,
		Email:   c.Email,
		Role:    c.Role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// validate checks everything except expiry. Callers check expiry last so an
// expired token is only reported as such when it is otherwise sound.
func (c *Claims) validate(kind TokenKind, issuer string, now time.Time, leeway time.Duration) error {
	switch {
	case c.Use != kind:
		return fmt.Errorf("%w: token_use %q, want %q", ErrInvalidToken, c.Use, kind)
	case c.Subject == "":
		return fmt.Errorf("%w: missing sub", ErrInvalidToken)
	case c.Email == "":
		return fmt.Errorf("%w: missing email", ErrInvalidToken)
	case !c.Role.Valid():
		return fmt.Errorf("%w: role %q", ErrInvalidToken, c.Role)
	case c.ExpiresAt == nil:
		return fmt.Errorf("%w: missing exp", ErrInvalidToken)
	case issuer != "" && c.Issuer != issuer:
		return fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	case c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)):
		return fmt.Errorf("%w: not yet valid", ErrInvalidToken)
	}
	return nil
}

// expired reports whether exp has been reached. A token whose exp equals
// now is already expired, so a zero TTL never verifies.
func (c *Claims) expired(now time.Time, leeway time.Duration) bool {
	return !now.Before(c.ExpiresAt.Add(leeway))
}
