package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestCreateReturnsFreshVersion(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "alice@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"token_version", "created_at"}).AddRow(int64(0), now))

	u, err := store.Create(context.Background(), "alice@example.com", "hash")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "alice@example.com", u.Email)
	require.Equal(t, int64(0), u.TokenVersion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := store.Create(context.Background(), "alice@example.com", "hash")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestGetByEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, email, password_hash, token_version, created_at").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIDScansAllColumns(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery("SELECT id, email, password_hash, token_version, created_at").
		WithArgs("u1").
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "email", "password_hash", "token_version", "created_at"}).
			AddRow("u1", "alice@example.com", "hash", int64(4), now))

	u, err := store.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.Equal(t, int64(4), u.TokenVersion)
}

func TestTokenVersionNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT token_version FROM users").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.TokenVersion(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestBumpTokenVersion(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("UPDATE users SET token_version = token_version").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(int64(5)))

	v, err := store.BumpTokenVersion(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, int64(5), v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBumpTokenVersionNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("UPDATE users SET token_version = token_version").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.BumpTokenVersion(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}
