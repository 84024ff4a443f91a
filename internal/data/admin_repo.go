package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fixpoint/repair-api/internal/data/pgxutil"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/jackc/pgx/v5"
)

// AdminRepo provides admin lookups for recipient resolution. Every admin
// receives the operator-facing lifecycle notifications.
type AdminRepo struct {
	DB *sql.DB
}

// NewAdminRepo creates a new AdminRepo instance with the given database connection.
func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{DB: db}
}

const adminColumns = `id, name, email, created_at`

// List retrieves all admins ordered by name.
func (r *AdminRepo) List(ctx context.Context) ([]*model.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins ORDER BY name ASC, id ASC`

	var admins []*model.Admin
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		admins, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.Admin])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	return admins, nil
}
