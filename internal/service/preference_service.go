package service

import (
	"context"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/preference"
	"github.com/brrowapp/brrow-backend/internal/repository"
)

type PreferenceService interface {
	// Get returns the stored settings or the defaults.
	Get(ctx context.Context, uid string) (*model.NotificationPreferences, error)
	Replace(ctx context.Context, uid string, p model.NotificationPreferences) (*model.NotificationPreferences, error)
}

type preferenceService struct {
	repo repository.PreferenceRepository
}

func NewPreferenceService(repo repository.PreferenceRepository) PreferenceService {
	return &preferenceService{repo: repo}
}

func (s *preferenceService) Get(ctx context.Context, uid string) (*model.NotificationPreferences, error) {
	p, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		d := model.DefaultPreferences(uid)
		return &d, nil
	}
	return p, nil
}

func (s *preferenceService) Replace(ctx context.Context, uid string, p model.NotificationPreferences) (*model.NotificationPreferences, error) {
	p.UserUID = uid
	if p.QuietStart == "" {
		p.QuietStart = model.DefaultQuietStart
	}
	if p.QuietEnd == "" {
		p.QuietEnd = model.DefaultQuietEnd
	}
	if _, err := preference.ParseWindow(p.QuietStart, p.QuietEnd); err != nil {
		return nil, invalid(err.Error())
	}
	if err := s.repo.Save(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
