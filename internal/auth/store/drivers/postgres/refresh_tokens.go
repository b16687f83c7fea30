package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
)

type RefreshTokensRepository struct {
	db DBTX
}

func NewRefreshTokensRepository(db DBTX) *RefreshTokensRepository {
	return &RefreshTokensRepository{db: db}
}

func (r *RefreshTokensRepository) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	const op = "postgres.CreateRefreshToken"

	query :=
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt)
	if isUniqueViolation(err) {
		return wrap(op, store.ErrAlreadyExists)
	}
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

func (r *RefreshTokensRepository) GetRefreshTokenByOwnerAndHash(ctx context.Context, userID, hash string) (domain.RefreshToken, error) {
	query :=
		`SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens
		 WHERE user_id = $1 AND token_hash = $2`

	var t domain.RefreshToken
	err := r.db.QueryRowContext(ctx, query, userID, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, wrap("postgres.GetRefreshTokenByOwnerAndHash", mapNotFound(err))
	}
	return t, nil
}

func (r *RefreshTokensRepository) DeleteRefreshToken(ctx context.Context, id string) error {
	const op = "postgres.DeleteRefreshToken"

	n, err := r.exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return wrap(op, store.ErrNotFound)
	}
	return nil
}

func (r *RefreshTokensRepository) DeleteUserRefreshToken(ctx context.Context, userID, hash string) (int64, error) {
	n, err := r.exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1 AND token_hash = $2`, userID, hash)
	if err != nil {
		return 0, wrap("postgres.DeleteUserRefreshToken", err)
	}
	return n, nil
}

func (r *RefreshTokensRepository) DeleteAllUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	n, err := r.exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, wrap("postgres.DeleteAllUserRefreshTokens", err)
	}
	return n, nil
}

func (r *RefreshTokensRepository) ListUserRefreshTokens(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	const op = "postgres.ListUserRefreshTokens"

	query :=
		`SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens
		 WHERE user_id = $1 AND expires_at >= now()
		 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []domain.RefreshToken
	for rows.Next() {
		var t domain.RefreshToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (r *RefreshTokensRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	n, err := r.exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, wrap("postgres.DeleteExpiredRefreshTokens", err)
	}
	return n, nil
}

func (r *RefreshTokensRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
