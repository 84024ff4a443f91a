package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fixpoint/repair-api/internal/data/pgxutil"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CustomerRepo provides customer lookups for recipient resolution and
// request ownership checks.
type CustomerRepo struct {
	DB *sql.DB
}

// NewCustomerRepo creates a new CustomerRepo instance with the given database connection.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{DB: db}
}

const customerColumns = `id, name, email, phone, created_at`

// GetByID retrieves a customer by its ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrCustomerNotFound
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var customer model.Customer
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		customer, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Customer])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer by id: %w", err)
	}

	return &customer, nil
}
