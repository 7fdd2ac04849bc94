package admins

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+admins.*ON\s+CONFLICT\s+\(username\)\s+DO\s+NOTHING`).
		WithArgs("root", "root@example.com", "Root", []byte("hash"), "admin", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("adm-1", now))

	a := &models.Admin{Username: "root", Email: "root@example.com", Name: "Root", PasswordHash: []byte("hash"), Role: "admin", Active: true}
	created, err := repo.Create(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "adm-1", a.ID)
}

func TestCreate_Existing(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+admins`).WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	created, err := repo.Create(context.Background(), &models.Admin{Username: "root"})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestGetByUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	login := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM\s+admins\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("root").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "name", "password_hash", "role", "active", "last_login_at", "created_at"}).
			AddRow("adm-1", "root", "r@x", "Root", []byte("hash"), "admin", true, login, login))

	a, err := repo.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, "adm-1", a.ID)
	require.NotNil(t, a.LastLoginAt)
	assert.True(t, login.Equal(*a.LastLoginAt))
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+admins`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestTouchLastLogin_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+admins\s+SET\s+last_login_at`).WillReturnError(errors.New("boom"))

	err := repo.TouchLastLogin(context.Background(), "adm-1", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}
