package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

type AccountsRepository struct {
	db DBTX
}

func NewAccountsRepository(db DBTX) *AccountsRepository {
	return &AccountsRepository{db: db}
}

func (r *AccountsRepository) get(ctx context.Context, op, query string, arg string) (domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Account{}, wrap(op, mapNotFound(err))
	}
	a.Role = jwtx.Role(role)
	return a, nil
}

func (r *AccountsRepository) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	query :=
		`SELECT id, email, password_hash, role, created_at, updated_at FROM accounts
		 WHERE email = $1`

	return r.get(ctx, "postgres.GetAccountByEmail", query, domain.NormaliseEmail(email))
}

func (r *AccountsRepository) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	query :=
		`SELECT id, email, password_hash, role, created_at, updated_at FROM accounts
		 WHERE id = $1`

	return r.get(ctx, "postgres.GetAccountByID", query, id)
}

func (r *AccountsRepository) CreateAccount(ctx context.Context, a domain.Account) error {
	const op = "postgres.CreateAccount"

	query :=
		`INSERT INTO accounts (id, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		a.ID, domain.NormaliseEmail(a.Email), a.PasswordHash, string(a.Role), a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return wrap(op, store.ErrAlreadyExists)
	}
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

func (r *AccountsRepository) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts)`).Scan(&exists); err != nil {
		return false, wrap("postgres.IsEmpty", err)
	}
	return !exists, nil
}
