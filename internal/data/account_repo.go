package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
	"github.com/fixpoint/repair-api/internal/ports"
)

// AccountRepo links authenticated identities to the recipient tables. Each
// role has its own table; rows are keyed by the IdP subject, with an email
// fallback for rows seeded before the subject was known.
type AccountRepo struct {
	DB *sql.DB
}

// NewAccountRepo creates a new AccountRepo instance with the given database connection.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{DB: db}
}

var _ ports.AccountProvisioner = (*AccountRepo)(nil)

// accountTables maps a role to the table holding its recipient rows. Guests
// have no table and are never provisioned.
var accountTables = map[domainauth.Role]string{
	domainauth.RoleAdmin:    "admins",
	domainauth.RoleEmployee: "employees",
	domainauth.RoleUser:     "customers",
}

// Provision ensures a recipient row exists for the authenticated principal
// and returns its id. Lookup order: by subject, then by email for unlinked
// seeded rows, then insert.
func (r *AccountRepo) Provision(ctx context.Context, params ports.ProvisionAccountParams) (string, error) {
	table, ok := accountTables[params.Role]
	if !ok {
		return "", fmt.Errorf("no account table for role %q", params.Role)
	}

	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return "", errors.New("email is required")
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = email
	}

	var id string

	// Known principal: refresh the mutable fields.
	err := r.DB.QueryRowContext(ctx,
		`UPDATE `+table+` SET name = $2, email = $3 WHERE subject = $1 RETURNING id`,
		subject, name, email,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("provision %s account: %w", table, err)
	}

	// First login of a seeded account: adopt the row carrying the email.
	err = r.DB.QueryRowContext(ctx,
		`UPDATE `+table+` SET subject = $1, name = $2 WHERE email = $3 AND subject IS NULL RETURNING id`,
		subject, name, email,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("provision %s account: %w", table, err)
	}

	// New principal. ON CONFLICT absorbs a concurrent first login.
	err = r.DB.QueryRowContext(ctx,
		`INSERT INTO `+table+` (subject, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email
		RETURNING id`,
		subject, name, email,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("provision %s account: %w", table, err)
	}
	return id, nil
}
