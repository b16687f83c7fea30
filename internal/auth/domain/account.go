package domain

import (
	"strings"
	"time"

	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

// Account is a login identity. Email is stored normalised.
type Account struct {
	ID           string
	Email        string
	PasswordHash string // argon2id PHC string, or bcrypt for seeded accounts
	Role         jwtx.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the claim set minted into tokens for this account.
func (a Account) Identity() jwtx.Identity {
	return jwtx.Identity{Subject: a.ID, Email: a.Email, Role: a.Role}
}

// NormaliseEmail trims and lowercases an address for lookup and storage.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
