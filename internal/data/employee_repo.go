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

// EmployeeRepo provides database operations for employee management.
type EmployeeRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewEmployeeRepo creates a new EmployeeRepo instance with the given database connection.
func NewEmployeeRepo(db *sql.DB) *EmployeeRepo {
	return &EmployeeRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// employeeColumns defines the column list for Employee SELECT queries to ensure consistent field mapping.
const employeeColumns = `id, name, email, status, created_at, updated_at`

// GetByID retrieves an employee by its ID.
func (r *EmployeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrEmployeeNotFound
	}

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	var employee model.Employee
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		employee, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Employee])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee by id: %w", err)
	}

	return &employee, nil
}

// List retrieves employees ordered by name.
func (r *EmployeeRepo) List(ctx context.Context, limit, offset int) ([]*model.Employee, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY name ASC, id ASC LIMIT $1 OFFSET $2`

	var employees []*model.Employee
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		employees, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Employee])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	return employees, nil
}

// ListAssignable retrieves free employees eligible for assignment, optionally
// excluding the employee who last rejected the request.
func (r *EmployeeRepo) ListAssignable(
	ctx context.Context,
	params core.ListAssignableParams,
) ([]*model.Employee, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE status = $1`
	args := []any{model.EmployeeStatusFree}
	if params.ExcludeID != nil {
		query += ` AND id <> $2`
		args = append(args, *params.ExcludeID)
	}
	query += fmt.Sprintf(` ORDER BY name ASC, id ASC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	var employees []*model.Employee
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		employees, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Employee])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list assignable employees: %w", err)
	}

	return employees, nil
}

// UpdateStatus updates an employee's availability status and returns the updated employee.
func (r *EmployeeRepo) UpdateStatus(
	ctx context.Context,
	params core.UpdateEmployeeStatusParams,
) (*model.Employee, error) {
	if params.ID == "" {
		return nil, errors.New("employee id is required")
	}
	if !params.Status.Valid() {
		return nil, errors.New("invalid employee status")
	}
	if _, err := uuid.Parse(params.ID); err != nil {
		return nil, ErrEmployeeNotFound
	}

	now := r.timeProvider.Now()

	var employee model.Employee
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, `
			UPDATE employees
			SET status = $1, updated_at = $2
			WHERE id = $3
			RETURNING `+employeeColumns,
			params.Status, now, params.ID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		employee, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Employee])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("update employee status: %w", err)
	}

	return &employee, nil
}
