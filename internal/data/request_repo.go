package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/data/database"
	"github.com/fixpoint/repair-api/internal/data/pgxutil"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// RequestRepo provides database operations for repair request management.
// Lifecycle mutations persist their outbox event row in the same transaction
// as the request row, so an event exists exactly when its mutation committed.
type RequestRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRequestRepo creates a new RequestRepo instance with the given database connection.
func NewRequestRepo(db *sql.DB) *RequestRepo {
	return &RequestRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// requestColumns defines the column list for RepairRequest SELECT queries to ensure consistent field mapping.
const requestColumns = `id, customer_id, device_type, brand, model, serial_number, issue, service_type, status, assigned_to, rejected_by, hold_reason, cancel_reason, created_at, updated_at`

// completionColumns defines the column list for WorkCompletion SELECT queries.
const completionColumns = `id, request_id, title, details, total_payment_amount, employee_income, company_revenue, payment_method, payment_status, completed_at`

// getRequestColumnList returns a slice of repair request column names for use with the query builder.
func getRequestColumnList() []string {
	return []string{
		"id", "customer_id", "device_type", "brand", "model", "serial_number", "issue",
		"service_type", "status", "assigned_to", "rejected_by", "hold_reason", "cancel_reason",
		"created_at", "updated_at",
	}
}

// insertEventTx writes an outbox row for the given lifecycle event inside the
// caller's transaction.
func insertEventTx(ctx context.Context, tx pgx.Tx, ev model.RequestEvent, now time.Time) error {
	payload, err := model.EncodeEvent(ev)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO request_events (request_id, event_type, payload, dispatch_status, attempts, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)`,
		ev.RequestRef(), ev.EventType(), payload, model.DispatchStatusPending, now,
	)
	if err != nil {
		return fmt.Errorf("insert request event: %w", err)
	}
	return nil
}

// resolveMissingRowTx distinguishes a vanished request from a lost status race
// after a conditional UPDATE matched no row.
func resolveMissingRowTx(ctx context.Context, tx pgx.Tx, id string) error {
	var status model.RequestStatus
	err := tx.QueryRow(ctx, `SELECT status FROM repair_requests WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("check request status: %w", err)
	}
	return ErrRequestConflict
}

// handleCreateError handles database errors during request creation.
func (r *RequestRepo) handleCreateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("create repair request: %w", err)
	}

	if pgErr.Code == "23503" && strings.Contains(pgErr.Detail, "customer_id") {
		return ErrCustomerNotFound
	}

	return fmt.Errorf("create repair request: %w", err)
}

// Create inserts a new pending repair request and its created event.
func (r *RequestRepo) Create(
	ctx context.Context,
	params core.CreateRequestParams,
) (*model.RepairRequest, error) {
	req := params.Request
	if req == nil {
		return nil, errors.New("create repair request is required")
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now()

	query := `
		INSERT INTO repair_requests (customer_id, device_type, brand, model, serial_number, issue, service_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + requestColumns

	var request model.RepairRequest
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query,
			req.CustomerID, req.DeviceType, req.Brand, req.Model, req.SerialNumber,
			req.Issue, req.ServiceType, model.RequestStatusPending, now, now,
		)
		if err != nil {
			return err
		}
		request, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RepairRequest])
		if err != nil {
			return err
		}

		ev := params.Event
		ev.RequestID = request.ID
		return insertEventTx(ctx, tx, ev, now)
	}})
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, err
		}
		return nil, r.handleCreateError(err)
	}

	return &request, nil
}

// GetByID retrieves a repair request by its ID.
func (r *RequestRepo) GetByID(ctx context.Context, id string) (*model.RepairRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRequestNotFound
	}

	query := `SELECT ` + requestColumns + ` FROM repair_requests WHERE id = $1`

	var request model.RepairRequest
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		request, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RepairRequest])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("get repair request by id: %w", err)
	}

	return &request, nil
}

// normalizePagination normalizes limit and offset values for pagination.
func (r *RequestRepo) normalizePagination(limit, offset int) (int, int) {
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

// List retrieves a list of repair requests with the given options using the query builder.
func (r *RequestRepo) List(
	ctx context.Context,
	opts *model.RequestListOptions,
) ([]*model.RepairRequest, error) {
	if opts == nil {
		opts = &model.RequestListOptions{}
	}

	limit, offset := r.normalizePagination(opts.Limit, opts.Offset)

	// id is a secondary sort key for deterministic ordering
	queryOpts := []database.ListQueryOption{
		database.WithColumns(getRequestColumnList()...),
		database.WithLimit(limit),
		database.WithOffset(offset),
		database.WithOrderBy("created_at", "DESC"),
		database.WithOrderBy("id", "DESC"),
	}

	if opts.CustomerID != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("customer_id", database.Equal, *opts.CustomerID),
		))
	}
	if opts.AssignedTo != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("assigned_to", database.Equal, *opts.AssignedTo),
		))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, *opts.Status),
		))
	}

	query, args := database.BuildListQuery(database.NewListQueryOptions("repair_requests", queryOpts...))

	var requests []*model.RepairRequest
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		requests, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.RepairRequest])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list repair requests: %w", err)
	}

	return requests, nil
}

// Assign moves a pending request to assigned, records the assignee, and
// writes the assigned event. A request no longer pending loses the race and
// returns ErrRequestConflict.
func (r *RequestRepo) Assign(
	ctx context.Context,
	params core.AssignRequestParams,
) (*model.RepairRequest, error) {
	if _, err := uuid.Parse(params.RequestID); err != nil {
		return nil, ErrRequestNotFound
	}
	if _, err := uuid.Parse(params.EmployeeID); err != nil {
		return nil, ErrEmployeeNotFound
	}
	if params.Event == nil {
		return nil, errors.New("assign event is required")
	}

	now := r.timeProvider.Now()

	query := `
		UPDATE repair_requests
		SET status = $1, assigned_to = $2, rejected_by = NULL, updated_at = $3
		WHERE id = $4 AND status = $5
		RETURNING ` + requestColumns

	var request model.RepairRequest
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query,
			model.RequestStatusAssigned, params.EmployeeID, now,
			params.RequestID, model.RequestStatusPending,
		)
		if err != nil {
			return err
		}
		request, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RepairRequest])
		if errors.Is(err, pgx.ErrNoRows) {
			return resolveMissingRowTx(ctx, tx, params.RequestID)
		}
		if err != nil {
			return err
		}

		return insertEventTx(ctx, tx, params.Event, now)
	}})
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) || errors.Is(err, ErrRequestConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("assign repair request: %w", err)
	}

	return &request, nil
}

// buildTransitionQuery builds the conditional UPDATE for a status transition.
func buildTransitionQuery(params core.TransitionRequestParams, now time.Time) (string, []any) {
	setClauses := []string{"status = $1", "updated_at = $2"}
	args := []any{params.To, now}
	argIndex := 3

	if params.ClearAssignee {
		setClauses = append(setClauses, "assigned_to = NULL")
	}
	if params.RejectedBy != nil {
		setClauses = append(setClauses, fmt.Sprintf("rejected_by = $%d", argIndex))
		args = append(args, *params.RejectedBy)
		argIndex++
	}
	if params.HoldReason != nil {
		setClauses = append(setClauses, fmt.Sprintf("hold_reason = $%d", argIndex))
		args = append(args, *params.HoldReason)
		argIndex++
	}
	if params.CancelReason != nil {
		setClauses = append(setClauses, fmt.Sprintf("cancel_reason = $%d", argIndex))
		args = append(args, *params.CancelReason)
		argIndex++
	}

	query := fmt.Sprintf(`
		UPDATE repair_requests
		SET %s
		WHERE id = $%d AND status = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIndex, argIndex+1, requestColumns)
	args = append(args, params.RequestID, params.From)

	return query, args
}

// Transition performs a guarded status transition. The UPDATE matches only
// when the row still has the expected From status, so concurrent actors lose
// cleanly with ErrRequestConflict instead of overwriting each other.
func (r *RequestRepo) Transition(
	ctx context.Context,
	params core.TransitionRequestParams,
) (*model.RepairRequest, error) {
	if _, err := uuid.Parse(params.RequestID); err != nil {
		return nil, ErrRequestNotFound
	}
	if !params.From.CanTransitionTo(params.To) {
		return nil, fmt.Errorf("transition from %s to %s is not allowed", params.From, params.To)
	}
	if params.Event == nil {
		return nil, errors.New("transition event is required")
	}

	now := r.timeProvider.Now()
	query, args := buildTransitionQuery(params, now)

	var request model.RepairRequest
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		request, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RepairRequest])
		if errors.Is(err, pgx.ErrNoRows) {
			return resolveMissingRowTx(ctx, tx, params.RequestID)
		}
		if err != nil {
			return err
		}

		if params.EmployeeID != nil && params.EmployeeStatus != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE employees SET status = $1, updated_at = $2 WHERE id = $3`,
				*params.EmployeeStatus, now, *params.EmployeeID,
			); err != nil {
				return fmt.Errorf("update employee status: %w", err)
			}
		}

		return insertEventTx(ctx, tx, params.Event, now)
	}})
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) || errors.Is(err, ErrRequestConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("transition repair request: %w", err)
	}

	return &request, nil
}

// Complete moves an in-progress request to completed, records the immutable
// work completion with its payment split, frees the employee, and writes the
// completed event, all in one transaction.
func (r *RequestRepo) Complete(
	ctx context.Context,
	params core.CompleteRequestParams,
) (*model.WorkCompletion, error) {
	if _, err := uuid.Parse(params.RequestID); err != nil {
		return nil, ErrRequestNotFound
	}
	if params.Completion == nil {
		return nil, errors.New("work completion is required")
	}
	if params.Event == nil {
		return nil, errors.New("completed event is required")
	}

	comp := params.Completion
	comp.Normalize()
	if err := comp.Validate(); err != nil {
		return nil, err
	}

	employeeIncome, companyRevenue := model.SplitPayment(comp.TotalPaymentAmount)
	now := r.timeProvider.Now()

	transitionQuery := `
		UPDATE repair_requests
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND assigned_to = $5
		RETURNING ` + requestColumns

	completionQuery := `
		INSERT INTO work_completions (request_id, title, details, total_payment_amount, employee_income, company_revenue, payment_method, payment_status, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + completionColumns

	var completion model.WorkCompletion
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, transitionQuery,
			model.RequestStatusCompleted, now,
			params.RequestID, model.RequestStatusInProgress, params.EmployeeID,
		)
		if err != nil {
			return err
		}
		if _, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RepairRequest]); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return resolveMissingRowTx(ctx, tx, params.RequestID)
			}
			return err
		}

		rows, err = tx.Query(ctx, completionQuery,
			params.RequestID, comp.Title, comp.Details, comp.TotalPaymentAmount,
			employeeIncome, companyRevenue, comp.PaymentMethod, comp.PaymentStatus, now,
		)
		if err != nil {
			return err
		}
		completion, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.WorkCompletion])
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE employees SET status = $1, updated_at = $2 WHERE id = $3`,
			model.EmployeeStatusFree, now, params.EmployeeID,
		); err != nil {
			return fmt.Errorf("update employee status: %w", err)
		}

		return insertEventTx(ctx, tx, params.Event, now)
	}})
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) || errors.Is(err, ErrRequestConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("complete repair request: %w", err)
	}

	return &completion, nil
}

// GetCompletion retrieves the work completion record for a request.
func (r *RequestRepo) GetCompletion(
	ctx context.Context,
	requestID string,
) (*model.WorkCompletion, error) {
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, ErrCompletionNotFound
	}

	query := `SELECT ` + completionColumns + ` FROM work_completions WHERE request_id = $1`

	var completion model.WorkCompletion
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, requestID)
		if err != nil {
			return err
		}
		defer rows.Close()

		completion, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.WorkCompletion])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompletionNotFound
		}
		return nil, fmt.Errorf("get work completion: %w", err)
	}

	return &completion, nil
}
