package handle

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/skylight-social/skylight/internal/tracing"
)

// PostgresDirectory implements Directory on PostgreSQL.
type PostgresDirectory struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresDirectory creates a PostgresDirectory.
func NewPostgresDirectory(db *sql.DB, logger *slog.Logger) *PostgresDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDirectory{db: db, logger: logger}
}

// GetByName retrieves a handle by name.
func (d *PostgresDirectory) GetByName(ctx context.Context, name string) (*Handle, error) {
	ctx, end := tracing.StartDBSpan(ctx, "handles", tracing.DBOperationQuery)
	var h Handle
	err := d.db.QueryRowContext(ctx,
		`SELECT name, display_name, owner_id FROM handles WHERE name = $1`, name,
	).Scan(&h.Name, &h.DisplayName, &h.OwnerID)
	end(err)
	if err == sql.ErrNoRows {
		return nil, ErrHandleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// IsAllowed reports whether the account may perform action on the handle.
// Owners hold every capability; other accounts hold rows in handle_grants.
func (d *PostgresDirectory) IsAllowed(ctx context.Context, accountID, name string, action Action) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM handles WHERE name = $1 AND owner_id = $2
			UNION ALL
			SELECT 1 FROM handle_grants
			WHERE handle = $1 AND account_id = $2 AND action = $3
		)
	`
	ctx, end := tracing.StartDBSpan(ctx, "handles", tracing.DBOperationQuery)
	var allowed bool
	err := d.db.QueryRowContext(ctx, query, name, accountID, string(action)).Scan(&allowed)
	end(err)
	if err != nil {
		return false, err
	}
	return allowed, nil
}
