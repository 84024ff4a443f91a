package data

import (
	"context"
	"testing"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/fixpoint/repair-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationRepo_Create(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	repo := NewNotificationRepo(db)
	admin := createTestAdmin(t, db)

	t.Run("successful creation", func(t *testing.T) {
		req := testutil.NewNotification(model.RecipientTypeAdmin, admin.ID).
			WithPriority(model.PriorityHigh).
			Build()

		notification, err := repo.Create(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, notification)

		assert.NotEmpty(t, notification.ID)
		assert.Equal(t, model.RecipientTypeAdmin, notification.RecipientType)
		assert.Equal(t, admin.ID, notification.RecipientID)
		assert.Equal(t, model.PriorityHigh, notification.Priority)
		assert.False(t, notification.Read)
		assert.Nil(t, notification.ReadAt)
	})

	t.Run("priority defaults to normal", func(t *testing.T) {
		req := testutil.NewNotification(model.RecipientTypeAdmin, admin.ID).
			WithPriority("").
			Build()

		notification, err := repo.Create(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, model.PriorityNormal, notification.Priority)
	})

	t.Run("validation error", func(t *testing.T) {
		req := testutil.NewNotification(model.RecipientTypeAdmin, admin.ID).
			WithTitle("").
			Build()

		notification, err := repo.Create(context.Background(), req)
		require.Error(t, err)
		assert.Nil(t, notification)
		assert.Contains(t, err.Error(), "title is required")
	})
}

func TestNotificationRepo_ListAndCount(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	repo := NewNotificationRepo(db)
	admin := createTestAdmin(t, db)
	other := createTestAdmin(t, db)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(context.Background(),
			testutil.NewNotification(model.RecipientTypeAdmin, admin.ID).Build())
		require.NoError(t, err)
	}
	_, err := repo.Create(context.Background(),
		testutil.NewNotification(model.RecipientTypeAdmin, other.ID).Build())
	require.NoError(t, err)

	t.Run("list scopes to one recipient", func(t *testing.T) {
		notifications, err := repo.List(context.Background(), &model.NotificationListOptions{
			RecipientType: model.RecipientTypeAdmin,
			RecipientID:   admin.ID,
		})
		require.NoError(t, err)
		assert.Len(t, notifications, 3)
	})

	t.Run("count unread", func(t *testing.T) {
		count, err := repo.CountUnread(context.Background(), core.RecipientParams{
			RecipientType: model.RecipientTypeAdmin,
			RecipientID:   admin.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("unread only filter", func(t *testing.T) {
		notifications, err := repo.List(context.Background(), &model.NotificationListOptions{
			RecipientType: model.RecipientTypeAdmin,
			RecipientID:   admin.ID,
			UnreadOnly:    true,
		})
		require.NoError(t, err)
		require.NotEmpty(t, notifications)

		_, err = repo.MarkRead(context.Background(), core.MarkReadParams{
			NotificationID: notifications[0].ID,
			Recipient: core.RecipientParams{
				RecipientType: model.RecipientTypeAdmin,
				RecipientID:   admin.ID,
			},
		})
		require.NoError(t, err)

		unread, err := repo.List(context.Background(), &model.NotificationListOptions{
			RecipientType: model.RecipientTypeAdmin,
			RecipientID:   admin.ID,
			UnreadOnly:    true,
		})
		require.NoError(t, err)
		assert.Len(t, unread, len(notifications)-1)
	})
}

func TestNotificationRepo_MarkRead(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	repo := NewNotificationRepo(db)
	admin := createTestAdmin(t, db)
	other := createTestAdmin(t, db)

	created, err := repo.Create(context.Background(),
		testutil.NewNotification(model.RecipientTypeAdmin, admin.ID).Build())
	require.NoError(t, err)

	t.Run("marks own notification read", func(t *testing.T) {
		notification, err := repo.MarkRead(context.Background(), core.MarkReadParams{
			NotificationID: created.ID,
			Recipient: core.RecipientParams{
				RecipientType: model.RecipientTypeAdmin,
				RecipientID:   admin.ID,
			},
		})
		require.NoError(t, err)
		assert.True(t, notification.Read)
		assert.NotNil(t, notification.ReadAt)
	})

	t.Run("cannot flip another recipient's notification", func(t *testing.T) {
		notification, err := repo.MarkRead(context.Background(), core.MarkReadParams{
			NotificationID: created.ID,
			Recipient: core.RecipientParams{
				RecipientType: model.RecipientTypeAdmin,
				RecipientID:   other.ID,
			},
		})
		require.Error(t, err)
		assert.Nil(t, notification)
		assert.ErrorIs(t, err, ErrNotificationNotFound)
	})
}
