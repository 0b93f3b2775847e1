package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alokkksharmaa/EduSphere/internal/models"
)

var (
	ErrTokenNotFound = errors.New("remember token not found")
	// ErrTokenConsumed is returned by Rotate when another request already
	// deleted the row being rotated.
	ErrTokenConsumed = errors.New("remember token already consumed")
)

// TokenRepository stores remember-me credentials in the auth_tokens table.
type TokenRepository struct {
	db DBTX
}

func NewTokenRepository(db DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

const insertTokenQuery = `
		INSERT INTO auth_tokens (id, user_id, selector, validator_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

func (r *TokenRepository) Insert(ctx context.Context, token models.RememberToken) error {
	_, err := r.db.Exec(ctx, insertTokenQuery,
		token.ID,
		token.UserID,
		token.Selector,
		token.ValidatorHash,
		token.ExpiresAt,
	)
	return err
}

// FindActiveBySelector only returns rows whose expiry is still in the future.
func (r *TokenRepository) FindActiveBySelector(ctx context.Context, selector string) (models.RememberToken, error) {
	const query = `
		SELECT id, user_id, selector, validator_hash, expires_at, created_at
		FROM auth_tokens
		WHERE selector = $1 AND expires_at > NOW()
	`

	var token models.RememberToken
	if err := r.db.QueryRow(ctx, query, selector).Scan(
		&token.ID,
		&token.UserID,
		&token.Selector,
		&token.ValidatorHash,
		&token.ExpiresAt,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RememberToken{}, ErrTokenNotFound
		}
		return models.RememberToken{}, err
	}
	return token, nil
}

func (r *TokenRepository) DeleteBySelector(ctx context.Context, selector string) (bool, error) {
	const query = `DELETE FROM auth_tokens WHERE selector = $1`
	cmd, err := r.db.Exec(ctx, query, selector)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// Rotate deletes the live row for oldSelector and inserts next in one
// transaction. The delete must affect exactly one row, so a pair can be
// redeemed at most once even when requests race.
func (r *TokenRepository) Rotate(ctx context.Context, oldSelector string, next models.RememberToken) error {
	const deleteQuery = `
		DELETE FROM auth_tokens
		WHERE selector = $1 AND expires_at > NOW()
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotation: %w", err)
	}

	cmd, err := tx.Exec(ctx, deleteQuery, oldSelector)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("delete rotated token: %w", err)
	}
	if cmd.RowsAffected() != 1 {
		_ = tx.Rollback(ctx)
		return ErrTokenConsumed
	}

	if _, err := tx.Exec(ctx, insertTokenQuery,
		next.ID,
		next.UserID,
		next.Selector,
		next.ValidatorHash,
		next.ExpiresAt,
	); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("insert rotated token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rotation: %w", err)
	}
	return nil
}

func (r *TokenRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	const query = `DELETE FROM auth_tokens WHERE user_id = $1`
	cmd, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM auth_tokens WHERE expires_at <= NOW()`
	cmd, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
