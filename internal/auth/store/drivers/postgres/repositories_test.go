package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/memoauth/internal/auth/domain"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
	"github.com/aussiebroadwan/memoauth/pkg/jwtx"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestGetAccountByEmail(t *testing.T) {
	ctx := context.Background()
	q := `(?s)^SELECT\s+id,\s*email,\s*password_hash,\s*role,\s*created_at,\s*updated_at\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1$`

	t.Run("found, email normalised", func(t *testing.T) {
		db, mock := newMock(t)
		now := time.Now().UTC()
		mock.ExpectQuery(q).
			WithArgs("a@b.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "created_at", "updated_at"}).
				AddRow("01J", "a@b.com", "hash", "ADMIN", now, now))

		got, err := NewAccountsRepository(db).GetAccountByEmail(ctx, " A@B.com")
		require.NoError(t, err)
		require.Equal(t, "01J", got.ID)
		require.Equal(t, jwtx.RoleAdmin, got.Role)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("ghost@b.com").WillReturnError(sql.ErrNoRows)

		_, err := NewAccountsRepository(db).GetAccountByEmail(ctx, "ghost@b.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestCreateAccount_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+accounts`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := NewAccountsRepository(db).CreateAccount(context.Background(), domain.Account{
		ID: "01J", Email: "a@b.com", PasswordHash: "h", Role: jwtx.RoleUser,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestIsEmpty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	empty, err := NewAccountsRepository(db).IsEmpty(context.Background())
	require.NoError(t, err)
	require.True(t, empty)
}

func TestDeleteRefreshToken(t *testing.T) {
	q := `^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("one row", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(q).WithArgs("rt1").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, NewRefreshTokensRepository(db).DeleteRefreshToken(context.Background(), "rt1"))
	})

	t.Run("zero rows is not found", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(q).WithArgs("rt1").WillReturnResult(sqlmock.NewResult(0, 0))
		err := NewRefreshTokensRepository(db).DeleteRefreshToken(context.Background(), "rt1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(q).WithArgs("rt1").WillReturnError(errors.New("db down"))
		err := NewRefreshTokensRepository(db).DeleteRefreshToken(context.Background(), "rt1")
		require.ErrorContains(t, err, "postgres.DeleteRefreshToken: db down")
		require.NotErrorIs(t, err, store.ErrNotFound)
	})
}

func TestDeleteUserRefreshToken(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+token_hash\s*=\s*\$2$`).
		WithArgs("u1", "h1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := NewRefreshTokensRepository(db).DeleteUserRefreshToken(context.Background(), "u1", "h1")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestGetRefreshTokenByOwnerAndHash(t *testing.T) {
	db, mock := newMock(t)
	exp := time.Now().Add(time.Hour).UTC()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*user_id,\s*token_hash,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+token_hash\s*=\s*\$2$`).
		WithArgs("u1", "h1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
			AddRow("rt1", "u1", "h1", exp, time.Now().UTC()))

	got, err := NewRefreshTokensRepository(db).GetRefreshTokenByOwnerAndHash(context.Background(), "u1", "h1")
	require.NoError(t, err)
	require.Equal(t, "rt1", got.ID)
	require.Equal(t, exp, got.ExpiresAt)
}

func TestListUserRefreshTokens(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+expires_at\s*>=\s*now\(\)`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
			AddRow("rt2", "u1", "h2", now.Add(time.Hour), now).
			AddRow("rt1", "u1", "h1", now.Add(time.Hour), now.Add(-time.Minute)))

	list, err := NewRefreshTokensRepository(db).ListUserRefreshTokens(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "rt2", list[0].ID)
}

func TestWithTxRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+id`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := NewStoreFromDB(db).WithTx(context.Background(), func(tx store.Tx) error {
		require.NoError(t, tx.RefreshTokens().DeleteRefreshToken(context.Background(), "rt1"))
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestWithTxCommits(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+refresh_tokens`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewStoreFromDB(db).WithTx(context.Background(), func(tx store.Tx) error {
		return tx.RefreshTokens().CreateRefreshToken(context.Background(), domain.RefreshToken{
			ID: "rt1", UserID: "u1", TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour),
		})
	})
	require.NoError(t, err)
}
