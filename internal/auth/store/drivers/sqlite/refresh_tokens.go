package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
)

const (
	createRefreshToken = `
INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
VALUES (?, ?, ?, ?, ?)`

	getRefreshTokenByOwnerAndHash = `
SELECT id, user_id, token_hash, expires_at, created_at
FROM refresh_tokens WHERE user_id = ? AND token_hash = ?`

	deleteRefreshToken = `DELETE FROM refresh_tokens WHERE id = ?`

	deleteUserRefreshToken = `DELETE FROM refresh_tokens WHERE user_id = ? AND token_hash = ?`

	deleteAllUserRefreshTokens = `DELETE FROM refresh_tokens WHERE user_id = ?`

	listUserRefreshTokens = `
SELECT id, user_id, token_hash, expires_at, created_at
FROM refresh_tokens WHERE user_id = ? AND expires_at >= ?
ORDER BY created_at DESC, id DESC`

	deleteExpiredRefreshTokens = `DELETE FROM refresh_tokens WHERE expires_at < ?`
)

type refreshTokensRepo struct {
	db dbtx
}

func scanRefreshToken(row rowScanner) (domain.RefreshToken, error) {
	var (
		t                domain.RefreshToken
		expires, created int64
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &expires, &created); err != nil {
		return domain.RefreshToken{}, err
	}
	t.ExpiresAt = fromMillis(expires)
	t.CreatedAt = fromMillis(created)
	return t, nil
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	const op = "sqlite.CreateRefreshToken"

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, createRefreshToken,
		t.ID, t.UserID, t.TokenHash, toMillis(t.ExpiresAt), toMillis(t.CreatedAt))
	if isUniqueViolation(err) {
		return wrap(op, store.ErrAlreadyExists)
	}
	if err != nil {
		return wrap(op, err)
	}
	return nil
}

func (r *refreshTokensRepo) GetRefreshTokenByOwnerAndHash(ctx context.Context, userID, hash string) (domain.RefreshToken, error) {
	const op = "sqlite.GetRefreshTokenByOwnerAndHash"

	t, err := scanRefreshToken(r.db.QueryRowContext(ctx, getRefreshTokenByOwnerAndHash, userID, hash))
	if err != nil {
		return domain.RefreshToken{}, wrap(op, mapNotFound(err))
	}
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, id string) error {
	const op = "sqlite.DeleteRefreshToken"

	n, err := r.exec(ctx, deleteRefreshToken, id)
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return wrap(op, store.ErrNotFound)
	}
	return nil
}

func (r *refreshTokensRepo) DeleteUserRefreshToken(ctx context.Context, userID, hash string) (int64, error) {
	n, err := r.exec(ctx, deleteUserRefreshToken, userID, hash)
	if err != nil {
		return 0, wrap("sqlite.DeleteUserRefreshToken", err)
	}
	return n, nil
}

func (r *refreshTokensRepo) DeleteAllUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	n, err := r.exec(ctx, deleteAllUserRefreshTokens, userID)
	if err != nil {
		return 0, wrap("sqlite.DeleteAllUserRefreshTokens", err)
	}
	return n, nil
}

func (r *refreshTokensRepo) ListUserRefreshTokens(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	const op = "sqlite.ListUserRefreshTokens"

	rows, err := r.db.QueryContext(ctx, listUserRefreshTokens, userID, toMillis(time.Now()))
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []domain.RefreshToken
	for rows.Next() {
		t, err := scanRefreshToken(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	n, err := r.exec(ctx, deleteExpiredRefreshTokens, toMillis(time.Now()))
	if err != nil {
		return 0, wrap("sqlite.DeleteExpiredRefreshTokens", err)
	}
	return n, nil
}

func (r *refreshTokensRepo) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
