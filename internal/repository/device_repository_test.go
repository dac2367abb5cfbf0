package repository

import (
	"context"
	"testing"
	"time"

	"github.com/brrowapp/brrow-backend/internal/dbtest"
	"github.com/brrowapp/brrow-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceRepository_RegisterUpsertsByToken(t *testing.T) {
	repo := NewDeviceRepository(dbtest.Open(t))
	ctx := context.Background()

	first, err := repo.Register(ctx, &model.Device{UserUID: "bob", Token: "tok", Platform: model.PlatformIOS})
	require.NoError(t, err)
	require.NoError(t, repo.Deactivate(ctx, first.ID, time.Now().UTC()))

	again, err := repo.Register(ctx, &model.Device{UserUID: "carol", Token: "tok", Platform: model.PlatformAndroid})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "carol", again.UserUID)
	assert.Equal(t, model.PlatformAndroid, again.Platform)
	assert.True(t, again.Active)
	assert.Nil(t, again.DeactivatedAt)
}

func TestDeviceRepository_ActiveByUser(t *testing.T) {
	repo := NewDeviceRepository(dbtest.Open(t))
	ctx := context.Background()
	now := time.Now().UTC()

	fresh, err := repo.Register(ctx, &model.Device{UserUID: "bob", Token: "fresh", Platform: model.PlatformIOS})
	require.NoError(t, err)
	_, err = repo.Register(ctx, &model.Device{UserUID: "bob", Token: "stale", Platform: model.PlatformIOS, LastSeenAt: now.Add(-90 * 24 * time.Hour)})
	require.NoError(t, err)
	dead, err := repo.Register(ctx, &model.Device{UserUID: "bob", Token: "dead", Platform: model.PlatformAndroid})
	require.NoError(t, err)
	require.NoError(t, repo.Deactivate(ctx, dead.ID, now))
	_, err = repo.Register(ctx, &model.Device{UserUID: "carol", Token: "other", Platform: model.PlatformIOS})
	require.NoError(t, err)

	all, err := repo.ActiveByUser(ctx, "bob", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	recent, err := repo.ActiveByUser(ctx, "bob", now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, fresh.ID, recent[0].ID)

	listed, err := repo.ListByUser(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}
