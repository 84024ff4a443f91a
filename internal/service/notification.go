package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/data"
	"github.com/fixpoint/repair-api/internal/domain/model"
	apperrors "github.com/fixpoint/repair-api/internal/errors"
)

// NotificationService serves the per-recipient notification feed. Rows are
// written by the notifier pipeline; this service only reads and acknowledges
// them on behalf of a signed-in recipient.
type NotificationService struct {
	repo core.NotificationRepository
}

func NewNotificationService(repo core.NotificationRepository) *NotificationService {
	if repo == nil {
		panic("notification service requires a repository")
	}
	return &NotificationService{repo: repo}
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(
	ctx context.Context,
	opts *model.NotificationListOptions,
) ([]*model.Notification, error) {
	if opts == nil {
		return nil, apperrors.Validation("list options are required")
	}
	if !opts.RecipientType.Valid() {
		return nil, apperrors.Validation("unknown recipient type")
	}
	if opts.RecipientID == "" {
		return nil, apperrors.Validation("recipient id is required")
	}
	notifications, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns how many of the recipient's notifications are unread.
func (s *NotificationService) CountUnread(ctx context.Context, recipient core.RecipientParams) (int, error) {
	count, err := s.repo.CountUnread(ctx, recipient)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags a single notification as read. The recipient scopes the
// update so a caller can only acknowledge their own rows.
func (s *NotificationService) MarkRead(
	ctx context.Context,
	params core.MarkReadParams,
) (*model.Notification, error) {
	if params.NotificationID == "" {
		return nil, apperrors.Validation("notification id is required")
	}
	notification, err := s.repo.MarkRead(ctx, params)
	if err != nil {
		if errors.Is(err, data.ErrNotificationNotFound) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "Notification not found")
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return notification, nil
}
