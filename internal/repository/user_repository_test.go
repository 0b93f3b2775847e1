package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alokkksharmaa/EduSphere/internal/models"
)

var userColumns = []string{"id", "email", "username", "password_hash", "role", "created_at", "updated_at"}

func TestUserCreate_NormalizesEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users.*RETURNING\s+id,\s*created_at,\s*updated_at`).
		WithArgs("ada@school.test", "ada", "hash", models.UserRoleTeacher).
		WillReturnRows(mock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	got, err := repo.Create(context.Background(), models.User{
		Email:        "  Ada@School.TEST ",
		Username:     "ada",
		PasswordHash: "hash",
		Role:         models.UserRoleTeacher,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, "ada@school.test", got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), models.User{Email: "a@b.test", Role: models.UserRoleStudent})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserFindByEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)`).
		WithArgs("Ada@School.test").
		WillReturnRows(mock.NewRows(userColumns).
			AddRow(int64(11), "ada@school.test", "ada", "hash", models.UserRoleAdmin, now, now))

	got, err := repo.FindByEmail(context.Background(), " Ada@School.test")
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, got.Role)
	assert.Equal(t, "ada", got.Username)
}

func TestUserGetByID_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`WHERE\s+id\s*=\s*\$1`).WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserUpdatePasswordHash_Missing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+password_hash`).
		WithArgs(int64(4), "new").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePasswordHash(context.Background(), 4, "new")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserList(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	now := time.Now()

	mock.ExpectQuery(`ORDER\s+BY\s+id\s+LIMIT\s+\$1\s+OFFSET\s+\$2`).
		WithArgs(2, 0).
		WillReturnRows(mock.NewRows(userColumns).
			AddRow(int64(1), "a@x.test", "a", "h", models.UserRoleStudent, now, now).
			AddRow(int64(2), "b@x.test", "b", "h", models.UserRoleTeacher, now, now))

	users, err := repo.List(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, models.UserRoleTeacher, users[1].Role)
}

func TestPreferenceSetTheme(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPreferenceRepository(mock)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+user_preferences.*ON\s+CONFLICT\s+\(user_id\)`).
		WithArgs(int64(3), models.ThemeDark).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SetTheme(context.Background(), 3, models.ThemeDark))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceGet_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPreferenceRepository(mock)

	mock.ExpectQuery(`FROM\s+user_preferences`).WithArgs(int64(3)).WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), 3)
	assert.ErrorIs(t, err, ErrPreferenceNotFound)
}
