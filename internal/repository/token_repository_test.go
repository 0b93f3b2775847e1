package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alokkksharmaa/EduSphere/internal/models"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleToken() models.RememberToken {
	return models.RememberToken{
		ID:            "2Nq9token",
		UserID:        7,
		Selector:      "aa11",
		ValidatorHash: "$argon2id$v=19$m=8,t=1,p=1$c2FsdA$a2V5",
		ExpiresAt:     time.Now().Add(time.Hour),
	}
}

const (
	qInsertToken = `(?s)^\s*INSERT\s+INTO\s+auth_tokens\s*\(id,\s*user_id,\s*selector,\s*validator_hash,\s*expires_at,\s*created_at\)`
	qFindToken   = `(?s)SELECT\s+id,\s*user_id,\s*selector,\s*validator_hash,\s*expires_at,\s*created_at\s+FROM\s+auth_tokens\s+WHERE\s+selector\s*=\s*\$1\s+AND\s+expires_at\s*>\s*NOW\(\)`
	qRotateDel   = `(?s)^\s*DELETE\s+FROM\s+auth_tokens\s+WHERE\s+selector\s*=\s*\$1\s+AND\s+expires_at\s*>\s*NOW\(\)\s*$`
)

func TestTokenInsert(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTokenRepository(mock)
	tok := sampleToken()

	mock.ExpectExec(qInsertToken).
		WithArgs(tok.ID, tok.UserID, tok.Selector, tok.ValidatorHash, tok.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Insert(context.Background(), tok))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenFindActiveBySelector(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTokenRepository(mock)
	tok := sampleToken()
	created := time.Now().Add(-time.Minute)

	rows := mock.NewRows([]string{"id", "user_id", "selector", "validator_hash", "expires_at", "created_at"}).
		AddRow(tok.ID, tok.UserID, tok.Selector, tok.ValidatorHash, tok.ExpiresAt, created)
	mock.ExpectQuery(qFindToken).WithArgs("aa11").WillReturnRows(rows)

	got, err := repo.FindActiveBySelector(context.Background(), "aa11")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, tok.ValidatorHash, got.ValidatorHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenFindActiveBySelector_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTokenRepository(mock)

	mock.ExpectQuery(qFindToken).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindActiveBySelector(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenRotate(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTokenRepository(mock)
	next := sampleToken()
	next.Selector = "bb22"

	mock.ExpectBegin()
	mock.ExpectExec(qRotateDel).WithArgs("aa11").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(qInsertToken).
		WithArgs(next.ID, next.UserID, "bb22", next.ValidatorHash, next.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Rotate(context.Background(), "aa11", next))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRotate_AlreadyConsumed(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTokenRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(qRotateDel).WithArgs("aa11").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := repo.Rotate(context.Background(), "aa11", sampleToken())
	assert.ErrorIs(t, err, ErrTokenConsumed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRotate_InsertFailsRollsBack(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTokenRepository(mock)
	next := sampleToken()

	mock.ExpectBegin()
	mock.ExpectExec(qRotateDel).WithArgs("aa11").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(qInsertToken).WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Rotate(context.Background(), "aa11", next)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenConsumed)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenDeleteByUser(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTokenRepository(mock)

	mock.ExpectExec(`DELETE\s+FROM\s+auth_tokens\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestTokenDeleteExpired(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTokenRepository(mock)

	mock.ExpectExec(`DELETE\s+FROM\s+auth_tokens\s+WHERE\s+expires_at\s*<=\s*NOW\(\)`).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestTokenDeleteBySelector(t *testing.T) {
	mock := newMockPool(t)
	repo := NewTokenRepository(mock)

	mock.ExpectExec(`DELETE\s+FROM\s+auth_tokens\s+WHERE\s+selector\s*=\s*\$1\s*$`).
		WithArgs("aa11").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := repo.DeleteBySelector(context.Background(), "aa11")
	require.NoError(t, err)
	assert.False(t, deleted)
}
