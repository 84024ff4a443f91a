// Package devseed populates a development database with sample accounts and
// repair requests so the API is usable immediately after a reset.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fixpoint/repair-api/internal/data"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/fixpoint/repair-api/internal/service"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB       *sql.DB
	requests *service.RequestService
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	requestService := service.NewRequestService(service.RequestServiceOptions{
		Requests:  data.NewRequestRepo(db),
		Employees: data.NewEmployeeRepo(db),
		Customers: data.NewCustomerRepo(db),
	})

	return Services{
		DB:       db,
		requests: requestService,
	}
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	failures := 0
	failures += seedAdmins(ctx, svcs.DB, logger)
	failures += seedEmployees(ctx, svcs.DB, logger)

	customerIDs, customerFailures := seedCustomers(ctx, svcs.DB, logger)
	failures += customerFailures

	failures += seedRequests(ctx, svcs, customerIDs, logger)

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

type accountSeed struct {
	name  string
	email string
}

func defaultAdminSeeds() []accountSeed {
	return []accountSeed{
		{name: "Dana Ops", email: "dana.ops@example.com"},
	}
}

func defaultEmployeeSeeds() []accountSeed {
	return []accountSeed{
		{name: "Riley Tech", email: "riley.tech@example.com"},
		{name: "Sam Fixit", email: "sam.fixit@example.com"},
		{name: "Jordan Bench", email: "jordan.bench@example.com"},
	}
}

func defaultCustomerSeeds() []accountSeed {
	return []accountSeed{
		{name: "Alex Carter", email: "alex.carter@example.com"},
		{name: "Morgan Lee", email: "morgan.lee@example.com"},
		{name: "Taylor Quinn", email: "taylor.quinn@example.com"},
	}
}

func seedAdmins(ctx context.Context, db *sql.DB, logger *slog.Logger) int {
	const q = `
		INSERT INTO admins (name, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	return upsertAccounts(ctx, db, logger, "admin", q, defaultAdminSeeds(), nil)
}

func seedEmployees(ctx context.Context, db *sql.DB, logger *slog.Logger) int {
	const q = `
		INSERT INTO employees (name, email, status)
		VALUES ($1, $2, 'free')
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	return upsertAccounts(ctx, db, logger, "employee", q, defaultEmployeeSeeds(), nil)
}

func seedCustomers(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]string, int) {
	const q = `
		INSERT INTO customers (name, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	var ids []string
	failures := upsertAccounts(ctx, db, logger, "customer", q, defaultCustomerSeeds(), &ids)
	return ids, failures
}

func upsertAccounts(
	ctx context.Context,
	db *sql.DB,
	logger *slog.Logger,
	kind, query string,
	seeds []accountSeed,
	ids *[]string,
) int {
	failures := 0
	for _, seed := range seeds {
		var id string
		if err := db.QueryRowContext(ctx, query, seed.name, seed.email).Scan(&id); err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to seed "+kind, "email", seed.email, "error", err)
			}
			failures++
			continue
		}
		if ids != nil {
			*ids = append(*ids, id)
		}
		if logger != nil {
			logger.InfoContext(ctx, "seeded "+kind, "email", seed.email, "id", id)
		}
	}
	return failures
}

type requestSeedSpec struct {
	deviceType  string
	brand       string
	model       string
	issue       string
	serviceType string
}

func defaultRequestSeedSpecs() []requestSeedSpec {
	return []requestSeedSpec{
		{
			deviceType:  "laptop",
			brand:       "Lenovo",
			model:       "ThinkPad X1",
			issue:       "Does not power on after a liquid spill",
			serviceType: "diagnostics",
		},
		{
			deviceType:  "phone",
			brand:       "Samsung",
			model:       "Galaxy S22",
			issue:       "Cracked screen, touch still works",
			serviceType: "screen-replacement",
		},
		{
			deviceType:  "printer",
			brand:       "HP",
			model:       "LaserJet Pro",
			issue:       "Paper jam error with no visible jam",
			serviceType: "repair",
		},
	}
}

func seedRequests(ctx context.Context, svcs Services, customerIDs []string, logger *slog.Logger) int {
	if len(customerIDs) == 0 {
		return 0
	}

	failures := 0
	for i, spec := range defaultRequestSeedSpecs() {
		customerID := customerIDs[i%len(customerIDs)]

		exists, err := customerHasRequests(ctx, svcs.DB, customerID)
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to check existing requests", "customer_id", customerID, "error", err)
			}
			failures++
			continue
		}
		if exists {
			if logger != nil {
				logger.InfoContext(ctx, "customer already has requests, skipping", "customer_id", customerID)
			}
			continue
		}

		created, err := svcs.requests.Submit(ctx, &model.CreateRepairRequest{
			CustomerID:  customerID,
			DeviceType:  spec.deviceType,
			Brand:       spec.brand,
			Model:       spec.model,
			Issue:       spec.issue,
			ServiceType: spec.serviceType,
		})
		if err != nil {
			if logger != nil {
				logger.ErrorContext(ctx, "failed to seed repair request", "device_type", spec.deviceType, "error", err)
			}
			failures++
			continue
		}
		if logger != nil {
			logger.InfoContext(ctx, "seeded repair request", "id", created.ID, "customer_id", customerID)
		}
	}
	return failures
}

func customerHasRequests(ctx context.Context, db *sql.DB, customerID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM repair_requests WHERE customer_id = $1)`
	var exists bool
	err := db.QueryRowContext(ctx, q, customerID).Scan(&exists)
	return exists, err
}
