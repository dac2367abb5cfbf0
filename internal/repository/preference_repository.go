package repository

import (
	"context"
	"errors"

	"github.com/brrowapp/brrow-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreferenceRepository interface {
	// Get returns nil without error when the user never saved preferences.
	Get(ctx context.Context, uid string) (*model.NotificationPreferences, error)
	Save(ctx context.Context, p *model.NotificationPreferences) error
}

type preferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Get(ctx context.Context, uid string) (*model.NotificationPreferences, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.NotificationPreferences
	if err := r.db.WithContext(ctx).Where("user_uid = ?", uid).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *preferenceRepository) Save(ctx context.Context, p *model.NotificationPreferences) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(p).Error
}
