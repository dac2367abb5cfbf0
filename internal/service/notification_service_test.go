package service

import (
	"context"
	"testing"

	"github.com/brrowapp/brrow-backend/internal/dbtest"
	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/brrowapp/brrow-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Paging(t *testing.T) {
	repo := repository.NewNotificationRepository(dbtest.Open(t))
	svc := NewNotificationService(repo)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.Notification{UserUID: "bob", Type: model.CategoryMessage, Title: "Alice"}))
	}

	page, err := svc.List(ctx, "bob", repository.NotificationFilter{UnreadOnly: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, page.UnreadCount)
	assert.Equal(t, page.Items[1].ID, page.NextBefore)

	page, err = svc.List(ctx, "bob", repository.NotificationFilter{UnreadOnly: true, Limit: 2, Before: page.NextBefore})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Zero(t, page.NextBefore)

	marked, err := svc.MarkAllRead(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)
}

func TestNotificationService_UnknownCategory(t *testing.T) {
	svc := NewNotificationService(repository.NewNotificationRepository(dbtest.Open(t)))
	_, err := svc.List(context.Background(), "bob", repository.NotificationFilter{Category: "coupon"})
	assert.ErrorIs(t, err, ErrInvalid)
}
