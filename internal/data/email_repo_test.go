package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/fixpoint/repair-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestEmail(t *testing.T, db *sql.DB, repo *EmailRepo) *model.EmailNotification {
	t.Helper()

	admin := createTestAdmin(t, db)
	notifRepo := NewNotificationRepo(db)
	notification, err := notifRepo.Create(context.Background(),
		testutil.NewNotification(model.RecipientTypeAdmin, admin.ID).Build())
	require.NoError(t, err)

	email, err := repo.Create(context.Background(), &model.CreateEmailNotificationRequest{
		NotificationID: notification.ID,
		RecipientEmail: admin.Email,
		RecipientType:  model.RecipientTypeAdmin,
		RecipientID:    admin.ID,
		EmailType:      model.EventRequestCreated,
		Subject:        "🔧 New Repair Request - #abc123",
		Content:        "<html><body>New request</body></html>",
	})
	require.NoError(t, err)
	return email
}

func TestEmailRepo_Create(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	repo := NewEmailRepo(db)

	t.Run("successful creation", func(t *testing.T) {
		email := createTestEmail(t, db, repo)

		assert.NotEmpty(t, email.ID)
		assert.Equal(t, model.DeliveryStatusPending, email.DeliveryStatus)
		assert.Equal(t, 0, email.RetryCount)
		assert.Nil(t, email.LastError)
	})

	t.Run("invalid address", func(t *testing.T) {
		email, err := repo.Create(context.Background(), &model.CreateEmailNotificationRequest{
			NotificationID: "550e8400-e29b-41d4-a716-446655440000",
			RecipientEmail: "not-an-address",
			RecipientType:  model.RecipientTypeAdmin,
			RecipientID:    "550e8400-e29b-41d4-a716-446655440000",
			EmailType:      model.EventRequestCreated,
			Subject:        "subject",
			Content:        "content",
		})
		require.Error(t, err)
		assert.Nil(t, email)
		assert.Contains(t, err.Error(), "not a valid address")
	})
}

func TestEmailRepo_MarkSentAndFailed(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	repo := NewEmailRepo(db)

	t.Run("mark sent clears last error", func(t *testing.T) {
		email := createTestEmail(t, db, repo)

		failed, err := repo.MarkFailed(context.Background(), core.MarkEmailFailedParams{
			ID:      email.ID,
			Message: "relay returned 502",
		})
		require.NoError(t, err)
		assert.Equal(t, model.DeliveryStatusFailed, failed.DeliveryStatus)
		require.NotNil(t, failed.LastError)
		assert.Equal(t, "relay returned 502", *failed.LastError)

		sent, err := repo.MarkSent(context.Background(), email.ID)
		require.NoError(t, err)
		assert.Equal(t, model.DeliveryStatusSent, sent.DeliveryStatus)
		assert.Nil(t, sent.LastError)
	})

	t.Run("email not found", func(t *testing.T) {
		email, err := repo.MarkSent(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
		require.Error(t, err)
		assert.Nil(t, email)
		assert.ErrorIs(t, err, ErrEmailNotFound)
	})
}

func TestEmailRepo_ClaimRetryBatch(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	repo := NewEmailRepo(db)

	failEmail := func(t *testing.T, id string) {
		t.Helper()
		_, err := repo.MarkFailed(context.Background(), core.MarkEmailFailedParams{
			ID: id, Message: "relay timeout",
		})
		require.NoError(t, err)
	}

	t.Run("claims failed rows and increments retry count", func(t *testing.T) {
		email := createTestEmail(t, db, repo)
		failEmail(t, email.ID)

		claimed, err := repo.ClaimRetryBatch(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, claimed, 1)

		assert.Equal(t, email.ID, claimed[0].ID)
		assert.Equal(t, model.DeliveryStatusRetrying, claimed[0].DeliveryStatus)
		assert.Equal(t, 1, claimed[0].RetryCount)

		// Already claimed rows are not claimed again.
		again, err := repo.ClaimRetryBatch(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("rows at the retry cap stay failed", func(t *testing.T) {
		email := createTestEmail(t, db, repo)
		failEmail(t, email.ID)

		for i := 0; i < model.MaxEmailRetries; i++ {
			claimed, err := repo.ClaimRetryBatch(context.Background(), 10)
			require.NoError(t, err)
			require.Len(t, claimed, 1)
			failEmail(t, email.ID)
		}

		// Fourth sweep finds nothing: retry_count reached the cap.
		claimed, err := repo.ClaimRetryBatch(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, claimed)

		final, err := repo.MarkSent(context.Background(), email.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MaxEmailRetries, final.RetryCount)
	})

	t.Run("respects batch limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			email := createTestEmail(t, db, repo)
			failEmail(t, email.ID)
		}

		claimed, err := repo.ClaimRetryBatch(context.Background(), 2)
		require.NoError(t, err)
		assert.Len(t, claimed, 2)
	})
}
