package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fixpoint/repair-api/config"
	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/fixpoint/repair-api/internal/mail"
	"golang.org/x/sync/errgroup"
)

// MailerServiceOptions groups dependencies for MailerService.
type MailerServiceOptions struct {
	Emails   core.EmailRepository
	Sender   core.EmailSender
	Renderer *mail.Renderer
	Config   config.MailerConfig
	Logger   *slog.Logger
}

// MailerService persists and sends the email records for lifecycle events and
// runs the retry sweep over failed deliveries.
type MailerService struct {
	emails   core.EmailRepository
	sender   core.EmailSender
	renderer *mail.Renderer
	config   config.MailerConfig
	logger   *slog.Logger
}

// NewMailerService constructs a new MailerService.
func NewMailerService(opts MailerServiceOptions) (*MailerService, error) {
	if opts.Emails == nil {
		return nil, errors.New("EmailRepository is required")
	}
	if opts.Sender == nil {
		return nil, errors.New("EmailSender is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("Renderer is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MailerService{
		emails:   opts.Emails,
		sender:   opts.Sender,
		renderer: opts.Renderer,
		config:   opts.Config,
		logger:   logger.With("component", "mailer_service"),
	}, nil
}

// Dispatch renders the event's template pair once and delivers it to every
// recipient in the batch. Each delivery gets a persisted record first so a
// transport failure is never silent. A recipient whose record cannot be
// created is logged, counted failed, and skipped; only a rendering failure
// aborts the batch.
func (s *MailerService) Dispatch(ctx context.Context, batch core.DispatchBatch) (core.DispatchResult, error) {
	subject, content, err := s.renderer.Render(batch.Event)
	if err != nil {
		return core.DispatchResult{}, err
	}

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())

	for _, recipient := range batch.Recipients {
		recipient := recipient
		g.Go(func() error {
			record, createErr := s.emails.Create(gctx, &model.CreateEmailNotificationRequest{
				NotificationID: recipient.NotificationID,
				RecipientEmail: recipient.Email,
				RecipientType:  recipient.RecipientType,
				RecipientID:    recipient.RecipientID,
				EmailType:      batch.Event.EventType(),
				Subject:        subject,
				Content:        content,
			})
			if createErr != nil {
				// No record means nothing to retry later. Skip the recipient
				// and keep the rest of the batch moving.
				s.logger.ErrorContext(gctx, "create email record failed, skipping recipient",
					"notification_id", recipient.NotificationID,
					"recipient", recipient.Email,
					"error", createErr,
				)
				failed.Add(1)
				return nil
			}

			if ok := s.deliver(gctx, record); ok {
				sent.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return core.DispatchResult{Sent: int(sent.Load()), Failed: int(failed.Load())}, waitErr
	}
	return core.DispatchResult{Sent: int(sent.Load()), Failed: int(failed.Load())}, nil
}

// deliver hands one record to the transport and settles its delivery status.
// Returns true on success; transport failures are captured on the record.
func (s *MailerService) deliver(ctx context.Context, record *model.EmailNotification) bool {
	sendErr := s.sender.Send(ctx, core.EmailMessage{
		To:      record.RecipientEmail,
		Subject: record.Subject,
		HTML:    record.Content,
	})
	if sendErr == nil {
		if _, err := s.emails.MarkSent(ctx, record.ID); err != nil {
			s.logger.ErrorContext(ctx, "mark email sent failed",
				"email_id", record.ID, "error", err)
		}
		return true
	}

	s.logger.WarnContext(ctx, "email delivery failed",
		"email_id", record.ID,
		"recipient", record.RecipientEmail,
		"retry_count", record.RetryCount,
		"error", sendErr,
	)
	if _, err := s.emails.MarkFailed(ctx, core.MarkEmailFailedParams{
		ID:      record.ID,
		Message: sendErr.Error(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "mark email failed errored",
			"email_id", record.ID, "error", err)
	}
	return false
}

// Run starts the retry sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *MailerService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting mailer retry sweep",
		"interval", s.config.RetryInterval,
		"batch_size", s.config.BatchSize,
	)

	// Jitter prevents synchronized sweeps when several instances start together
	waitWithJitter(ctx, s.config.RetryInterval, s.logger)

	ticker := time.NewTicker(s.config.RetryInterval)
	defer ticker.Stop()

	if err := s.sweep(ctx); err != nil && !isContextCancellation(err) {
		s.logger.ErrorContext(ctx, "initial retry sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "mailer stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.sweep(ctx); err != nil && !isContextCancellation(err) {
				// Continue running despite errors
				s.logger.ErrorContext(ctx, "retry sweep failed", "error", err)
			}
		}
	}
}

// sweep claims one batch of failed rows under the retry cap and resends them.
// Claiming marks each row retrying and bumps retry_count in the same
// statement, so concurrent sweepers never double-send.
func (s *MailerService) sweep(ctx context.Context) error {
	claimed, err := s.emails.ClaimRetryBatch(ctx, s.config.BatchSize)
	if err != nil {
		return err
	}
	if len(claimed) == 0 {
		return nil
	}

	var resent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for _, record := range claimed {
		record := record
		g.Go(func() error {
			if ok := s.deliver(gctx, record); ok {
				resent.Add(1)
			}
			return nil
		})
	}
	if waitErr := g.Wait(); waitErr != nil {
		return waitErr
	}

	s.logger.InfoContext(ctx, "retry sweep finished",
		"claimed", len(claimed),
		"resent", resent.Load(),
	)
	return nil
}

func (s *MailerService) concurrency() int {
	if s.config.Concurrency < 1 {
		return 1
	}
	return s.config.Concurrency
}
