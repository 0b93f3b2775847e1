package service

import (
	"context"
	"errors"

	"github.com/alokkksharmaa/EduSphere/internal/models"
)

var ErrInvalidTheme = errors.New("invalid theme")

type PreferenceRepository interface {
	SetTheme(ctx context.Context, userID int64, theme models.Theme) error
}

type PreferenceService struct {
	prefs PreferenceRepository
}

func NewPreferenceService(prefs PreferenceRepository) *PreferenceService {
	return &PreferenceService{prefs: prefs}
}

func (s *PreferenceService) SetTheme(ctx context.Context, userID int64, theme models.Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	return s.prefs.SetTheme(ctx, userID, theme)
}
