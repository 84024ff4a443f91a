package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/fixpoint/repair-api/config"
	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/domain/model"
)

// OutboxServiceOptions groups dependencies for OutboxService.
type OutboxServiceOptions struct {
	Outbox   core.OutboxRepository
	Notifier core.EventNotifier
	Config   config.OutboxConfig
	Logger   *slog.Logger
}

// OutboxService drains durable lifecycle-event rows into the notifier. Rows
// are written in the same transaction as the lifecycle mutation, so a crash
// between mutation and fan-out no longer loses the notification.
type OutboxService struct {
	outbox   core.OutboxRepository
	notifier core.EventNotifier
	config   config.OutboxConfig
	logger   *slog.Logger
}

// NewOutboxService constructs a new OutboxService.
func NewOutboxService(opts OutboxServiceOptions) (*OutboxService, error) {
	if opts.Outbox == nil {
		return nil, errors.New("OutboxRepository is required")
	}
	if opts.Notifier == nil {
		return nil, errors.New("EventNotifier is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OutboxService{
		outbox:   opts.Outbox,
		notifier: opts.Notifier,
		config:   opts.Config,
		logger:   logger.With("component", "outbox_service"),
	}, nil
}

// Run starts the drain loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *OutboxService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting outbox drainer",
		"interval", s.config.PollInterval,
		"batch_size", s.config.BatchSize,
	)

	waitWithJitter(ctx, s.config.PollInterval, s.logger)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	if _, err := s.Drain(ctx); err != nil && !isContextCancellation(err) {
		s.logger.ErrorContext(ctx, "initial outbox drain failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "outbox drainer stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.Drain(ctx); err != nil && !isContextCancellation(err) {
				// Continue running despite errors
				s.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain claims one batch of pending event rows and fans each out through the
// notifier, settling every row as dispatched or failed. It returns the number
// of rows dispatched.
func (s *OutboxService) Drain(ctx context.Context) (int, error) {
	records, err := s.outbox.ClaimPending(ctx, s.config.BatchSize)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, record := range records {
		if ctx.Err() != nil {
			return dispatched, ctx.Err()
		}
		if s.drainOne(ctx, record) {
			dispatched++
		}
	}

	if dispatched > 0 {
		s.logger.InfoContext(ctx, "outbox drained",
			"claimed", len(records),
			"dispatched", dispatched,
		)
	}
	return dispatched, nil
}

// drainOne decodes and dispatches a single event row. A handler failure marks
// the row failed with the error; it never stops the batch.
func (s *OutboxService) drainOne(ctx context.Context, record *model.RequestEventRecord) bool {
	ev, err := model.DecodeEvent(record.EventType, record.Payload)
	if err == nil {
		_, err = s.notifier.HandleEvent(ctx, ev)
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "event dispatch failed",
			"event_id", record.ID,
			"event_type", record.EventType,
			"request_id", record.RequestID,
			"attempts", record.Attempts,
			"error", err,
		)
		if markErr := s.outbox.MarkFailed(ctx, core.MarkEventFailedParams{
			ID:      record.ID,
			Message: err.Error(),
		}); markErr != nil {
			s.logger.ErrorContext(ctx, "mark event failed errored",
				"event_id", record.ID, "error", markErr)
		}
		return false
	}

	if markErr := s.outbox.MarkDispatched(ctx, record.ID); markErr != nil {
		s.logger.ErrorContext(ctx, "mark event dispatched failed",
			"event_id", record.ID, "error", markErr)
		return false
	}
	return true
}

// waitWithJitter sleeps a random delay up to 10% of interval so that several
// instances starting together do not tick in lockstep.
func waitWithJitter(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	maxJitter := int64(interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if logger != nil {
			logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
