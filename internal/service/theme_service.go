package service

import (
	"context"
	"errors"
	"strings"

	"parking_finder/internal/domain"
	"parking_finder/internal/logger"
	"parking_finder/internal/preference"
)

// ThemeService resolves the effective theme: stored preference, then the system signal, then light.
type ThemeService struct {
	store preference.Store
}

func NewThemeService(store preference.Store) *ThemeService {
	return &ThemeService{store: store}
}

// Resolve never fails; a broken store degrades to the system signal.
func (s *ThemeService) Resolve(ctx context.Context, systemHint string) domain.Theme {
	t, err := s.store.Theme(ctx)
	if err == nil {
		return t
	}
	if !errors.Is(err, preference.ErrNoPreference) {
		logger.L().Warn("theme_preference_read_failed", "err", err)
	}
	if domain.Theme(strings.ToLower(strings.TrimSpace(systemHint))) == domain.ThemeDark {
		return domain.ThemeDark
	}
	return domain.ThemeLight
}

// Toggle flips the effective theme and stores the result as the explicit preference.
func (s *ThemeService) Toggle(ctx context.Context, systemHint string) (domain.Theme, error) {
	next := s.Resolve(ctx, systemHint).Toggled()
	if err := s.store.SetTheme(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
