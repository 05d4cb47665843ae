package image

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/skylight-social/skylight/internal/tracing"
)

// PostgresStore implements Store on PostgreSQL. Imageset parameters are
// stored as one jsonb column since the core never queries inside them.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// GetByID retrieves an image by id.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Image, error) {
	ctx, end := tracing.StartDBSpan(ctx, "images", tracing.DBOperationQuery)
	var (
		img Image
		wwt []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, alt_text, credits, wwt FROM images WHERE id = $1`, id,
	).Scan(&img.ID, &img.AltText, &img.Credits, &wwt)
	end(err)
	if err == sql.ErrNoRows {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(wwt, &img.Wwt); err != nil {
		return nil, fmt.Errorf("decode imageset for %q: %w", id, err)
	}
	return &img, nil
}

// Exists reports whether an image id resolves.
func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	ctx, end := tracing.StartDBSpan(ctx, "images", tracing.DBOperationQuery)
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM images WHERE id = $1)`, id,
	).Scan(&exists)
	end(err)
	if err != nil {
		return false, err
	}
	return exists, nil
}
