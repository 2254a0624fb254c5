package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/avekens/threadlens/internal/models"
	repository "github.com/avekens/threadlens/internal/repository/postgres"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

var testUID = uuid.MustParse("8f7c4f34-9d15-4d6a-8c3e-0a1c6f2a9a11")

func TestPostgresUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("NilUser", func(t *testing.T) {
		err := repo.Create(ctx, nil)
		assert.ErrorIs(t, err, pkgerrors.ErrNilUser)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UserAlreadyExists", func(t *testing.T) {
		user := &models.User{
			Name:         "Test User",
			Email:        "test@example.com",
			PasswordHash: "hash",
		}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(user.Name, user.Email, models.RoleUser, false, user.PasswordHash, "").
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, user)
		assert.ErrorIs(t, err, pkgerrors.ErrUserAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		user := &models.User{
			Name:         "Test User",
			Email:        "test@example.com",
			PasswordHash: "hash",
		}
		rows := sqlmock.NewRows([]string{"uid", "created_at"}).
			AddRow(testUID.String(), time.Now())
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
			WithArgs(user.Name, user.Email, models.RoleUser, false, user.PasswordHash, "").
			WillReturnRows(rows)

		err := repo.Create(ctx, user)
		assert.NoError(t, err)
		assert.Equal(t, testUID, user.UID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()

	columns := []string{"uid", "name", "email", "role", "is_verified", "password_hash", "google_id", "created_at"}

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow(testUID.String(), "Test User", "test@example.com", "user", true, "hash", "", time.Now())
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT uid, name, email, role, is_verified`)).
			WithArgs("test@example.com").
			WillReturnRows(rows)

		user, err := repo.GetByEmail(ctx, "test@example.com")
		assert.NoError(t, err)
		assert.Equal(t, testUID, user.UID)
		assert.Equal(t, "test@example.com", user.Email)
		assert.True(t, user.IsVerified)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT uid, name, email, role, is_verified`)).
			WithArgs("ghost@example.com").
			WillReturnRows(sqlmock.NewRows(columns))

		user, err := repo.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyEmail", func(t *testing.T) {
		user, err := repo.GetByEmail(ctx, "")
		assert.Error(t, err)
		assert.Nil(t, user)
	})
}

func TestPostgresUserRepository_Updates(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("UpdateVerified", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET is_verified`)).
			WithArgs(true, testUID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateVerified(ctx, testUID, true))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdatePasswordHash_UserGone", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET password_hash`)).
			WithArgs("newhash", testUID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePasswordHash(ctx, testUID, "newhash")
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserRepository_Exists(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs("test@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "test@example.com")
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
