package repository

import (
	"context"

	"github.com/brrowapp/brrow-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationFilter narrows a user's in-app history. Before is an id cursor:
// only rows older than it are returned.
type NotificationFilter struct {
	UnreadOnly     bool
	Category       model.Category
	ConversationID uint64
	Before         uint64
	Limit          int
}

type NotificationRepository interface {
	// Create is a no-op when the user already has a row for the message.
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userUID string, f NotificationFilter) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, userUID string) (int64, error)
	MarkByConversation(ctx context.Context, userUID string, convID uint64) error
	CountUnread(ctx context.Context, userUID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(n).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userUID string, f NotificationFilter) ([]model.Notification, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if f.Limit <= 0 || f.Limit > 50 {
		f.Limit = 20
	}
	q := r.db.WithContext(ctx).Where("user_uid = ?", userUID)
	if f.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if f.Category != "" {
		q = q.Where("type = ?", f.Category)
	}
	if f.ConversationID != 0 {
		q = q.Where("conversation_id = ?", f.ConversationID)
	}
	if f.Before != 0 {
		q = q.Where("id < ?", f.Before)
	}
	var list []model.Notification
	if err := q.Order("id DESC").Limit(f.Limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) markRead(ctx context.Context, scope *gorm.DB) (int64, error) {
	res := scope.WithContext(ctx).
		Model(&model.Notification{}).
		Where("read_at IS NULL").
		Update("read_at", r.db.NowFunc())
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userUID string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	return r.markRead(ctx, r.db.Where("user_uid = ?", userUID))
}

func (r *notificationRepository) MarkByConversation(ctx context.Context, userUID string, convID uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	_, err := r.markRead(ctx, r.db.Where("user_uid = ? AND conversation_id = ?", userUID, convID))
	return err
}

func (r *notificationRepository) CountUnread(ctx context.Context, userUID string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_uid = ? AND read_at IS NULL", userUID).
		Count(&cnt).Error
	return cnt, err
}
