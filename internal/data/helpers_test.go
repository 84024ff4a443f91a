package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fixpoint/repair-api/internal/domain/model"
)

// Recipient fixtures insert directly so repo tests do not depend on the
// write paths under test. Emails carry a uuid because the test database
// is shared and the email columns are unique.

func createTestCustomer(t *testing.T, db *sql.DB) *model.Customer {
	t.Helper()

	customer := &model.Customer{}
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO customers (name, email)
		VALUES ($1, $2)
		RETURNING id, name, email, created_at`,
		"Test Customer", "customer-"+uuid.NewString()+"@example.com",
	).Scan(&customer.ID, &customer.Name, &customer.Email, &customer.CreatedAt)
	require.NoError(t, err)
	return customer
}

func createTestEmployee(t *testing.T, db *sql.DB, status model.EmployeeStatus) *model.Employee {
	t.Helper()

	employee := &model.Employee{}
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO employees (name, email, status)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, status, created_at`,
		"Test Employee", "employee-"+uuid.NewString()+"@example.com", status,
	).Scan(&employee.ID, &employee.Name, &employee.Email, &employee.Status, &employee.CreatedAt)
	require.NoError(t, err)
	return employee
}

func countOutboxEvents(t *testing.T, db *sql.DB, requestID string, eventType model.EventType) int {
	t.Helper()

	var count int
	err := db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM request_events WHERE request_id = $1 AND event_type = $2`,
		requestID, eventType,
	).Scan(&count)
	require.NoError(t, err)
	return count
}

func createTestAdmin(t *testing.T, db *sql.DB) *model.Admin {
	t.Helper()

	admin := &model.Admin{}
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO admins (name, email)
		VALUES ($1, $2)
		RETURNING id, name, email, created_at`,
		"Test Admin", "admin-"+uuid.NewString()+"@example.com",
	).Scan(&admin.ID, &admin.Name, &admin.Email, &admin.CreatedAt)
	require.NoError(t, err)
	return admin
}
