package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

const (
	getAccountByEmail = `
SELECT id, email, password_hash, role, created_at, updated_at
FROM accounts WHERE email = ?`

	getAccountByID = `
SELECT id, email, password_hash, role, created_at, updated_at
FROM accounts WHERE id = ?`

	createAccount = `
INSERT INTO accounts (id, email, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

	countAccounts = `SELECT COUNT(*) FROM accounts`
)

type accountsRepo struct {
	db dbtx
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a                domain.Account
		role             string
		created, updated int64
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &created, &updated); err != nil {
		return domain.Account{}, err
	}
	a.Role = jwtx.Role(role)
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	const op = "sqlite.GetAccountByEmail"

	a, err := scanAccount(r.db.QueryRowContext(ctx, getAccountByEmail, domain.NormaliseEmail(email)))
	if err != nil {
		return domain.Account{}, wrap(op, mapNotFound(err))
	}
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	const op = "sqlite.GetAccountByID"

	a, err := scanAccount(r.db.QueryRowContext(ctx, getAccountByID, id))
	if err != nil {
		return domain.Account{}, wrap(op, mapNotFound(err))
	}
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	const op = "sqlite.CreateAccount"

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, createAccount,
		a.ID,
		domain.NormaliseEmail(a.Email),
		a.PasswordHash,
		string(a.Role),
		toMillis(a.CreatedAt),
		toMillis(a.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return wrap(op, store.ErrAlreadyExists)
	}
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

func (r *accountsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, countAccounts).Scan(&n); err != nil {
		return false, wrap("sqlite.IsEmpty", err)
	}
	return n == 0, nil
}
