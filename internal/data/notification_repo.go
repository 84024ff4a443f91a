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

// NotificationRepo provides database operations for in-app notifications.
type NotificationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewNotificationRepo creates a new NotificationRepo instance with the given database connection.
func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// notificationColumns defines the column list for Notification SELECT queries to ensure consistent field mapping.
const notificationColumns = `id, recipient_type, recipient_id, type, title, message, request_id, priority, read, read_at, created_at`

// Create creates a new notification with the given request parameters.
func (r *NotificationRepo) Create(
	ctx context.Context,
	req *model.CreateNotificationRequest,
) (*model.Notification, error) {
	if req == nil {
		return nil, errors.New("create notification request is required")
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()

	query := `
		INSERT INTO notifications (recipient_type, recipient_id, type, title, message, request_id, priority, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
		RETURNING ` + notificationColumns

	var notification model.Notification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query,
			req.RecipientType, req.RecipientID, req.Type, req.Title, req.Message,
			req.RequestID, req.Priority, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		notification, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Notification])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	return &notification, nil
}

// normalizePagination normalizes limit and offset values for pagination.
func (r *NotificationRepo) normalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// List retrieves notifications for one recipient, newest first.
func (r *NotificationRepo) List(
	ctx context.Context,
	opts *model.NotificationListOptions,
) ([]*model.Notification, error) {
	if opts == nil {
		return nil, errors.New("notification list options are required")
	}
	if !opts.RecipientType.Valid() {
		return nil, errors.New("invalid recipient_type")
	}
	if opts.RecipientID == "" {
		return nil, errors.New("recipient_id is required")
	}

	limit, offset := r.normalizePagination(opts.Limit, opts.Offset)

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_type = $1 AND recipient_id = $2`
	if opts.UnreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`

	var notifications []*model.Notification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, opts.RecipientType, opts.RecipientID, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		notifications, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Notification])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return notifications, nil
}

// CountUnread returns the number of unread notifications for one recipient.
func (r *NotificationRepo) CountUnread(
	ctx context.Context,
	recipient core.RecipientParams,
) (int, error) {
	if !recipient.RecipientType.Valid() {
		return 0, errors.New("invalid recipient_type")
	}
	if recipient.RecipientID == "" {
		return 0, errors.New("recipient_id is required")
	}

	query := `SELECT COUNT(*) FROM notifications WHERE recipient_type = $1 AND recipient_id = $2 AND read = FALSE`

	var count int
	err := r.DB.QueryRowContext(ctx, query, recipient.RecipientType, recipient.RecipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return count, nil
}

// MarkRead flips a notification's read flag. The recipient fields scope the
// UPDATE so one portal cannot flip another recipient's rows.
func (r *NotificationRepo) MarkRead(
	ctx context.Context,
	params core.MarkReadParams,
) (*model.Notification, error) {
	if _, err := uuid.Parse(params.NotificationID); err != nil {
		return nil, ErrNotificationNotFound
	}
	if !params.Recipient.RecipientType.Valid() {
		return nil, errors.New("invalid recipient_type")
	}
	if params.Recipient.RecipientID == "" {
		return nil, errors.New("recipient_id is required")
	}

	now := r.timeProvider.Now()

	query := `
		UPDATE notifications
		SET read = TRUE, read_at = $1
		WHERE id = $2 AND recipient_type = $3 AND recipient_id = $4
		RETURNING ` + notificationColumns

	var notification model.Notification
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query,
			now, params.NotificationID,
			params.Recipient.RecipientType, params.Recipient.RecipientID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		notification, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Notification])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}

	return &notification, nil
}
