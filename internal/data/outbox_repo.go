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

// ErrEventNotFound is returned when an outbox row is not found.
var ErrEventNotFound = errors.New("request event not found")

// OutboxRepo drains the durable lifecycle-event rows written by request
// mutations. Rows are written by RequestRepo inside the mutation transaction;
// this repository only claims and settles them.
type OutboxRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewOutboxRepo creates a new OutboxRepo instance with the given database connection.
func NewOutboxRepo(db *sql.DB) *OutboxRepo {
	return &OutboxRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// eventColumns defines the column list for RequestEventRecord SELECT queries to ensure consistent field mapping.
const eventColumns = `id, request_id, event_type, payload, dispatch_status, dispatch_error, attempts, created_at, dispatched_at`

// ClaimPending claims up to limit undispatched outbox rows in insertion
// order, incrementing their attempt counter. Failed rows are reclaimed until
// the attempts cap so a transient notifier error does not strand the event.
// FOR UPDATE SKIP LOCKED keeps concurrent drains from claiming the same row
// twice.
func (r *OutboxRepo) ClaimPending(
	ctx context.Context,
	limit int,
) ([]*model.RequestEventRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		UPDATE request_events
		SET attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM request_events
			WHERE dispatch_status = $1
			   OR (dispatch_status = $2 AND attempts < $3)
			ORDER BY created_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + eventColumns

	var events []*model.RequestEventRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query,
			model.DispatchStatusPending,
			model.DispatchStatusFailed, model.MaxDispatchAttempts,
			limit,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		events, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.RequestEventRecord])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("claim pending request events: %w", err)
	}

	return events, nil
}

// MarkDispatched settles an outbox row as dispatched.
func (r *OutboxRepo) MarkDispatched(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrEventNotFound
	}

	now := r.timeProvider.Now()

	result, err := r.DB.ExecContext(ctx, `
		UPDATE request_events
		SET dispatch_status = $1, dispatch_error = NULL, dispatched_at = $2
		WHERE id = $3`,
		model.DispatchStatusDispatched, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark request event dispatched: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// MarkFailed settles an outbox row as failed and records the handler error.
func (r *OutboxRepo) MarkFailed(ctx context.Context, params core.MarkEventFailedParams) error {
	if _, err := uuid.Parse(params.ID); err != nil {
		return ErrEventNotFound
	}

	message := params.Message
	if message == "" {
		message = "dispatch failed"
	}

	result, err := r.DB.ExecContext(ctx, `
		UPDATE request_events
		SET dispatch_status = $1, dispatch_error = $2
		WHERE id = $3`,
		model.DispatchStatusFailed, message, params.ID,
	)
	if err != nil {
		return fmt.Errorf("mark request event failed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}
