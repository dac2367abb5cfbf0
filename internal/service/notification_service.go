package service

import (
	"context"

	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/repository"
)

// NotificationPage is one page of history plus the badge count.
type NotificationPage struct {
	Items       []model.Notification
	UnreadCount int64
	// NextBefore is the cursor for the following page, zero on the last one.
	NextBefore uint64
}

type NotificationService interface {
	List(ctx context.Context, userUID string, f repository.NotificationFilter) (*NotificationPage, error)
	UnreadCount(ctx context.Context, userUID string) (int64, error)
	MarkAllRead(ctx context.Context, userUID string) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, userUID string, f repository.NotificationFilter) (*NotificationPage, error) {
	if f.Category != "" {
		if _, err := model.ParseCategory(string(f.Category)); err != nil {
			return nil, invalid("unknown category")
		}
	}
	list, err := s.repo.ListByUser(ctx, userUID, f)
	if err != nil {
		return nil, err
	}
	cnt, err := s.repo.CountUnread(ctx, userUID)
	if err != nil {
		return nil, err
	}
	page := &NotificationPage{Items: list, UnreadCount: cnt}
	if f.Limit > 0 && len(list) == f.Limit {
		page.NextBefore = list[len(list)-1].ID
	}
	return page, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userUID string) (int64, error) {
	return s.repo.CountUnread(ctx, userUID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userUID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userUID)
}
