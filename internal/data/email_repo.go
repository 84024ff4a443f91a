package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/data/pgxutil"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EmailRepo provides database operations for email delivery records.
type EmailRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewEmailRepo creates a new EmailRepo instance with the given database connection.
func NewEmailRepo(db *sql.DB) *EmailRepo {
	return &EmailRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// emailColumns defines the column list for EmailNotification SELECT queries to ensure consistent field mapping.
const emailColumns = `id, notification_id, recipient_email, recipient_type, recipient_id, email_type, subject, content, delivery_status, retry_count, last_error, created_at, updated_at`

// Create persists a new email record in pending state.
func (r *EmailRepo) Create(
	ctx context.Context,
	req *model.CreateEmailNotificationRequest,
) (*model.EmailNotification, error) {
	if req == nil {
		return nil, errors.New("create email notification request is required")
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()

	query := `
		INSERT INTO email_notifications (notification_id, recipient_email, recipient_type, recipient_id, email_type, subject, content, delivery_status, retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
		RETURNING ` + emailColumns

	var email model.EmailNotification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query,
			req.NotificationID, req.RecipientEmail, req.RecipientType, req.RecipientID,
			req.EmailType, req.Subject, req.Content, model.DeliveryStatusPending, now, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		email, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.EmailNotification])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create email notification: %w", err)
	}

	return &email, nil
}

// MarkSent marks an email record as delivered and clears its last error.
func (r *EmailRepo) MarkSent(ctx context.Context, id string) (*model.EmailNotification, error) {
	return r.updateDeliveryStatus(ctx, id, model.DeliveryStatusSent, nil)
}

// MarkFailed marks an email record as failed and records the transport error.
func (r *EmailRepo) MarkFailed(
	ctx context.Context,
	params core.MarkEmailFailedParams,
) (*model.EmailNotification, error) {
	message := params.Message
	if message == "" {
		message = "delivery failed"
	}
	return r.updateDeliveryStatus(ctx, params.ID, model.DeliveryStatusFailed, &message)
}

func (r *EmailRepo) updateDeliveryStatus(
	ctx context.Context,
	id string,
	status model.DeliveryStatus,
	lastError *string,
) (*model.EmailNotification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrEmailNotFound
	}

	now := r.timeProvider.Now()

	query := `
		UPDATE email_notifications
		SET delivery_status = $1, last_error = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + emailColumns

	var email model.EmailNotification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, status, lastError, now, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		email, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.EmailNotification])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("update email delivery status: %w", err)
	}

	return &email, nil
}

// ClaimRetryBatch claims up to limit failed emails still under the retry cap.
// Claiming marks the row retrying and increments retry_count in the same
// statement; FOR UPDATE SKIP LOCKED keeps concurrent sweeps from claiming the
// same row twice.
func (r *EmailRepo) ClaimRetryBatch(
	ctx context.Context,
	limit int,
) ([]*model.EmailNotification, error) {
	if limit <= 0 {
		limit = 10
	}

	now := r.timeProvider.Now()

	query := `
		UPDATE email_notifications
		SET delivery_status = $1, retry_count = retry_count + 1, updated_at = $2
		WHERE id IN (
			SELECT id FROM email_notifications
			WHERE delivery_status = $3 AND retry_count < $4
			ORDER BY updated_at ASC
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + emailColumns

	var emails []*model.EmailNotification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query,
			model.DeliveryStatusRetrying, now,
			model.DeliveryStatusFailed, model.MaxEmailRetries, limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		emails, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.EmailNotification])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("claim email retry batch: %w", err)
	}

	return emails, nil
}
