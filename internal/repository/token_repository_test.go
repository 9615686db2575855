package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/jebol-id/adminduk-api/internal/models"
)

func newTokenRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTokenRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()

	repo := NewTokenRepository(db)
	mock.ExpectExec("INSERT INTO personal_access_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.PersonalToken{
		UserID:    "u1",
		Name:      "mobile:access",
		TokenHash: "hash",
		Abilities: []string{"access"},
	}
	require.NoError(t, repo.Create(context.Background(), token))
	require.NotEmpty(t, token.ID)
	require.False(t, token.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()

	repo := NewTokenRepository(db)
	expires := time.Now().Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "token_hash", "abilities", "last_used_at", "expires_at", "created_at"}).
		AddRow("t1", "u1", "mobile:access", "hash", "{access}", nil, expires, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, name, token_hash, abilities, last_used_at, expires_at, created_at FROM personal_access_tokens WHERE id = $1")).
		WithArgs("t1").
		WillReturnRows(rows)

	token, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "u1", token.UserID)
	require.True(t, token.Can("access"))
	require.False(t, token.Can("refresh"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()

	repo := NewTokenRepository(db)
	mock.ExpectQuery("SELECT .+ FROM personal_access_tokens WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()

	repo := NewTokenRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM personal_access_tokens WHERE id = $1")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "t1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryDeleteForUser(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()

	repo := NewTokenRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM personal_access_tokens WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteForUser(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryTouchLastUsed(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()

	repo := NewTokenRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE personal_access_tokens SET last_used_at = $2 WHERE id = $1")).
		WithArgs("t1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchLastUsed(context.Background(), "t1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}
