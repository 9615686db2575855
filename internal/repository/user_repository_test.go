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

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows(users ...*models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "uuid", "username", "password_hash", "role", "is_active", "notes", "created_at", "updated_at"})
	for _, u := range users {
		rows.AddRow(u.ID, u.UUID, u.Username, u.PasswordHash, u.Role, u.IsActive, u.Notes, u.CreatedAt, u.UpdatedAt)
	}
	return rows
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	user := &models.User{
		ID:           "u1",
		UUID:         "uuid-1",
		Username:     "superadmin",
		PasswordHash: "hash",
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, uuid, username, password_hash, role, is_active, notes, created_at, updated_at FROM users WHERE username = $1")).
		WithArgs("superadmin").
		WillReturnRows(userRows(user))

	found, err := repo.FindByUsername(context.Background(), "superadmin")
	require.NoError(t, err)
	require.Equal(t, "u1", found.ID)
	require.Equal(t, models.RoleSuperAdmin, found.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByUsernameNotFound(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery("SELECT .+ FROM users WHERE username").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsername(context.Background(), "ghost")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByRoleAndRefMatchesIDOrUUID(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	user := &models.User{ID: "u1", UUID: "uuid-1", Username: "rt01", Role: models.RoleRT, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE role = $1 AND (id::text = $2 OR uuid::text = $2)")).
		WithArgs(models.RoleRT, "uuid-1").
		WillReturnRows(userRows(user))

	found, err := repo.FindByRoleAndRef(context.Background(), models.RoleRT, "uuid-1")
	require.NoError(t, err)
	require.Equal(t, "u1", found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByRoleAndRefComparesAsText(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	// A ref that is not a valid uuid must reach Postgres as a plain text
	// comparison and come back as no-rows, never as a uuid bind error.
	mock.ExpectQuery(regexp.QuoteMeta("WHERE role = $1 AND (id::text = $2 OR uuid::text = $2)")).
		WithArgs(models.RoleRT, "abc").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByRoleAndRef(context.Background(), models.RoleRT, "abc")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUsernameExists(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE username = $1 AND id <> $2")).
		WithArgs("rt01", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	taken, err := repo.UsernameExists(context.Background(), "rt01", "u1")
	require.NoError(t, err)
	require.True(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAssignsIdentifiers(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Username: "rt02", PasswordHash: "hash", Role: models.RoleRT, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)
	require.NotEmpty(t, user.UUID)
	require.False(t, user.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdatePassword(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("u1", "newhash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "u1", "newhash", now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFiltersAndCounts(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	role := models.RoleRT
	user := &models.User{ID: "u1", UUID: "uuid-1", Username: "rt01", Role: models.RoleRT, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}

	mock.ExpectQuery("SELECT id, uuid, username, .+ FROM users WHERE 1=1 AND role = \\$1.+ORDER BY created_at DESC LIMIT 15 OFFSET 0").
		WithArgs(role).
		WillReturnRows(userRows(user))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND role = $1")).
		WithArgs(role).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListClampsPaginationAndSort(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery("ORDER BY created_at DESC LIMIT 15 OFFSET 0").
		WillReturnRows(userRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.UserFilter{
		Page:      -3,
		PerPage:   5000,
		SortBy:    "password_hash; DROP TABLE users",
		SortOrder: "sideways",
	})
	require.NoError(t, err)
	require.Equal(t, 0, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
