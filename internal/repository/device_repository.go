package repository

import (
	"context"
	"time"

	"github.com/brrowapp/brrow-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository interface {
	Register(ctx context.Context, d *model.Device) (*model.Device, error)
	FindByID(ctx context.Context, id uint64) (*model.Device, error)
	ListByUser(ctx context.Context, uid string) ([]model.Device, error)
	ActiveByUser(ctx context.Context, uid string, seenAfter time.Time) ([]model.Device, error)
	Deactivate(ctx context.Context, id uint64, at time.Time) error
}

type deviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

// Register inserts the device or, when the token is already known, moves it
// to the caller and reactivates it.
func (r *deviceRepository) Register(ctx context.Context, d *model.Device) (*model.Device, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	d.Active = true
	d.DeactivatedAt = nil
	if d.LastSeenAt.IsZero() {
		d.LastSeenAt = r.db.NowFunc()
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_uid", "platform", "webpush_p256dh", "webpush_auth",
			"active", "last_seen_at", "deactivated_at", "updated_at",
		}),
	}).Create(d).Error
	if err != nil {
		return nil, err
	}
	var saved model.Device
	if err := r.db.WithContext(ctx).Where("token = ?", d.Token).First(&saved).Error; err != nil {
		return nil, mapErr(err)
	}
	return &saved, nil
}

func (r *deviceRepository) FindByID(ctx context.Context, id uint64) (*model.Device, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var d model.Device
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (r *deviceRepository) ListByUser(ctx context.Context, uid string) ([]model.Device, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Device
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", uid).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ActiveByUser returns devices that can receive pushes. A zero seenAfter
// disables the staleness cut.
func (r *deviceRepository) ActiveByUser(ctx context.Context, uid string, seenAfter time.Time) ([]model.Device, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).Where("user_uid = ? AND active = ?", uid, true)
	if !seenAfter.IsZero() {
		q = q.Where("last_seen_at >= ?", seenAfter)
	}
	var list []model.Device
	if err := q.Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Deactivate marks a single device row inactive. The row is kept so the same
// token can be re-registered.
func (r *deviceRepository) Deactivate(ctx context.Context, id uint64, at time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Device{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": false, "deactivated_at": at}).Error
}
