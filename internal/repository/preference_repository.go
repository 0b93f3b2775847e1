package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/alokkksharmaa/EduSphere/internal/models"
)

var ErrPreferenceNotFound = errors.New("preference not found")

type PreferenceRepository struct {
	db DBTX
}

func NewPreferenceRepository(db DBTX) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) SetTheme(ctx context.Context, userID int64, theme models.Theme) error {
	const query = `
		INSERT INTO user_preferences (user_id, theme, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET theme = EXCLUDED.theme, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, userID, theme)
	return err
}

func (r *PreferenceRepository) Get(ctx context.Context, userID int64) (models.Preference, error) {
	const query = `
		SELECT user_id, theme, updated_at FROM user_preferences WHERE user_id = $1
	`

	var pref models.Preference
	if err := r.db.QueryRow(ctx, query, userID).Scan(&pref.UserID, &pref.Theme, &pref.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Preference{}, ErrPreferenceNotFound
		}
		return models.Preference{}, err
	}
	return pref, nil
}
