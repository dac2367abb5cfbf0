package repository

import (
	"context"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeliveryFilter narrows an attempt query. Zero fields match everything.
type DeliveryFilter struct {
	MessageID    uint64
	RecipientUID string
	Status       model.DeliveryStatus
	Limit        int
}

type DeliveryRepository interface {
	// Claim inserts the attempt unless one already exists for the same
	// (message, recipient, device). It reports whether the row was created.
	Claim(ctx context.Context, a *model.DeliveryAttempt) (bool, error)
	Update(ctx context.Context, a *model.DeliveryAttempt) error
	Query(ctx context.Context, f DeliveryFilter) ([]model.DeliveryAttempt, error)
	CountByStatus(ctx context.Context, since time.Time) (map[model.DeliveryStatus]int64, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Claim(ctx context.Context, a *model.DeliveryAttempt) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *deliveryRepository) Update(ctx context.Context, a *model.DeliveryAttempt) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.DeliveryAttempt{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"status":              a.Status,
			"tries":               a.Tries,
			"last_error":          a.LastError,
			"provider_message_id": a.ProviderMessageID,
			"updated_at":          r.db.NowFunc(),
		}).Error
}

func (r *deliveryRepository) Query(ctx context.Context, f DeliveryFilter) ([]model.DeliveryAttempt, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	q := r.db.WithContext(ctx).Model(&model.DeliveryAttempt{})
	if f.MessageID != 0 {
		q = q.Where("message_id = ?", f.MessageID)
	}
	if f.RecipientUID != "" {
		q = q.Where("recipient_uid = ?", f.RecipientUID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var list []model.DeliveryAttempt
	if err := q.Order("created_at DESC, message_id DESC, device_id ASC").Limit(f.Limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *deliveryRepository) CountByStatus(ctx context.Context, since time.Time) (map[model.DeliveryStatus]int64, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []struct {
		Status model.DeliveryStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.DeliveryAttempt{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[model.DeliveryStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *deliveryRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&model.DeliveryAttempt{})
	return res.RowsAffected, res.Error
}
