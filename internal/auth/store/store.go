package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres,
// mongodb) implement it. Repositories hang off the store so a transaction
// hands out the same repositories bound to itself, and nobody can start a
// transaction inside one by accident.
type Store interface {
	Accounts() Accounts
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByEmail looks up by normalised email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// CreateAccount returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// IsEmpty returns true if there are no accounts.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new record. ID is assigned by the caller.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByOwnerAndHash returns ErrNotFound when no record of
	// userID carries hash.
	GetRefreshTokenByOwnerAndHash(ctx context.Context, userID, hash string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes exactly one record. It returns ErrNotFound
	// when nothing was deleted, which is how a concurrent consumer loses.
	DeleteRefreshToken(ctx context.Context, id string) error

	// DeleteUserRefreshToken removes the record of userID matching hash and
	// returns how many rows went.
	DeleteUserRefreshToken(ctx context.Context, userID, hash string) (int64, error)

	// DeleteAllUserRefreshTokens removes every record of userID.
	DeleteAllUserRefreshTokens(ctx context.Context, userID string) (int64, error)

	// ListUserRefreshTokens returns the unexpired records of userID, newest
	// first.
	ListUserRefreshTokens(ctx context.Context, userID string) ([]domain.RefreshToken, error)

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)
}
