package scene

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skylight-social/skylight/internal/tracing"
)

// PostgresRepository implements Repository on PostgreSQL via database/sql.
// A scene is one row; every mutation is a single statement, which is what
// supplies the all-or-nothing patch guarantee.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

const sceneColumns = `id, handle, creation_date, impressions, likes, clicks, shares,
	ra_rad, dec_rad, roll_rad, roi_height_deg, roi_aspect_ratio,
	background_id, image_layers, previews, outgoing_url, body_text, published,
	home_timeline_order, astropix_publisher_id, astropix_image_id`

// Insert stores a new scene row.
func (r *PostgresRepository) Insert(ctx context.Context, s *Scene) error {
	ctx, end := tracing.StartDBSpan(ctx, "scenes", tracing.DBOperationInsert)
	layers, err := json.Marshal(s.Content.ImageLayers)
	if err != nil {
		end(err)
		return StorageError{Op: "insert", Err: err}
	}
	previews, err := json.Marshal(previewsOrEmpty(s.Previews))
	if err != nil {
		end(err)
		return StorageError{Op: "insert", Err: err}
	}

	var apPublisher, apImage sql.NullString
	if s.Astropix != nil {
		apPublisher = sql.NullString{String: s.Astropix.PublisherID, Valid: true}
		apImage = sql.NullString{String: s.Astropix.ImageID, Valid: true}
	}
	var order sql.NullFloat64
	if s.HomeTimelineOrder != nil {
		order = sql.NullFloat64{Float64: *s.HomeTimelineOrder, Valid: true}
	}

	query := `
		INSERT INTO scenes (` + sceneColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			NULLIF($13, ''), $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.Handle, s.CreationDate,
		s.Impressions, s.Likes, s.Clicks, s.Shares,
		s.Place.RARad, s.Place.DecRad, s.Place.RollRad,
		s.Place.RoiHeightDeg, s.Place.RoiAspectRatio,
		s.Content.BackgroundID, layers, previews,
		s.OutgoingURL, s.Text, s.Published,
		order, apPublisher, apImage,
	)
	end(err)
	if err != nil {
		return StorageError{Op: "insert", Err: err}
	}
	return nil
}

// GetByID retrieves a scene row.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Scene, error) {
	ctx, end := tracing.StartDBSpan(ctx, "scenes", tracing.DBOperationQuery)
	row := r.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE id = $1`, id)
	s, err := scanScene(row)
	end(err)
	if err == sql.ErrNoRows {
		return nil, ErrSceneNotFound
	}
	if err != nil {
		return nil, StorageError{Op: "get", Err: err}
	}
	return s, nil
}

// columnFor maps update fields to their columns. FieldPlace expands to the
// five place columns and is handled separately.
var columnFor = map[Field]string{
	FieldText:        "body_text",
	FieldOutgoingURL: "outgoing_url",
	FieldBackground:  "background_id",
	FieldPublished:   "published",
}

// ApplyUpdate applies a set/unset operation as one UPDATE statement.
func (r *PostgresRepository) ApplyUpdate(ctx context.Context, id string, upd Update) error {
	if upd.Empty() {
		return nil
	}
	var assignments []string
	args := []any{id}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for field, value := range upd.Set {
		switch field {
		case FieldPlace:
			place := value.(Place)
			assignments = append(assignments,
				"ra_rad = "+next(place.RARad),
				"dec_rad = "+next(place.DecRad),
				"roll_rad = "+next(place.RollRad),
				"roi_height_deg = "+next(place.RoiHeightDeg),
				"roi_aspect_ratio = "+next(place.RoiAspectRatio),
			)
		case FieldAstropix:
			ap := value.(Astropix)
			assignments = append(assignments,
				"astropix_publisher_id = "+next(ap.PublisherID),
				"astropix_image_id = "+next(ap.ImageID),
			)
		default:
			col, ok := columnFor[field]
			if !ok {
				return StorageError{Op: "update", Err: fmt.Errorf("unknown field %q", field)}
			}
			assignments = append(assignments, col+" = "+next(value))
		}
	}
	for _, field := range upd.Unset {
		if field != FieldAstropix {
			return StorageError{Op: "update", Err: fmt.Errorf("field %q cannot be unset", field)}
		}
		assignments = append(assignments,
			"astropix_publisher_id = NULL",
			"astropix_image_id = NULL",
		)
	}

	query := "UPDATE scenes SET " + strings.Join(assignments, ", ") + " WHERE id = $1"
	ctx, end := tracing.StartDBSpan(ctx, "scenes", tracing.DBOperationUpdate)
	res, err := r.db.ExecContext(ctx, query, args...)
	end(err)
	if err != nil {
		return StorageError{Op: "update", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return StorageError{Op: "update", Err: err}
	}
	if affected == 0 {
		return ErrSceneNotFound
	}
	return nil
}

// validCounters whitelists counter columns for interpolation.
var validCounters = map[Counter]bool{
	CounterImpressions: true,
	CounterLikes:       true,
	CounterClicks:      true,
	CounterShares:      true,
}

// ChangeCount atomically adjusts one counter, clamped at zero.
func (r *PostgresRepository) ChangeCount(ctx context.Context, id string, counter Counter, delta int64) error {
	if !validCounters[counter] {
		return StorageError{Op: "change_count", Err: fmt.Errorf("unknown counter %q", counter)}
	}
	col := string(counter)
	query := fmt.Sprintf("UPDATE scenes SET %s = GREATEST(%s + $2, 0) WHERE id = $1", col, col)
	ctx, end := tracing.StartDBSpan(ctx, "scenes", tracing.DBOperationUpdate)
	res, err := r.db.ExecContext(ctx, query, id, delta)
	end(err)
	if err != nil {
		return StorageError{Op: "change_count", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return StorageError{Op: "change_count", Err: err}
	}
	if affected == 0 {
		return ErrSceneNotFound
	}
	return nil
}

// HomeTimeline returns one page of published, ranked scenes.
func (r *PostgresRepository) HomeTimeline(ctx context.Context, page int) ([]*Scene, error) {
	if page < 0 {
		return nil, nil
	}
	query := `
		SELECT ` + sceneColumns + ` FROM scenes
		WHERE published AND home_timeline_order IS NOT NULL
		ORDER BY home_timeline_order ASC
		LIMIT $1 OFFSET $2
	`
	ctx, end := tracing.StartDBSpan(ctx, "scenes", tracing.DBOperationQuery)
	rows, err := r.db.QueryContext(ctx, query, HomeTimelinePageSize, page*HomeTimelinePageSize)
	end(err)
	if err != nil {
		return nil, StorageError{Op: "home_timeline", Err: err}
	}
	defer rows.Close()

	var out []*Scene
	for rows.Next() {
		s, err := scanScene(rows)
		if err != nil {
			return nil, StorageError{Op: "home_timeline", Err: err}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, StorageError{Op: "home_timeline", Err: err}
	}
	return out, nil
}

// AstropixSummary maps publisher to image to ["@handle", scene id].
func (r *PostgresRepository) AstropixSummary(ctx context.Context) (map[string]map[string][]string, error) {
	query := `
		SELECT id, handle, astropix_publisher_id, astropix_image_id FROM scenes
		WHERE published AND astropix_publisher_id IS NOT NULL
	`
	ctx, end := tracing.StartDBSpan(ctx, "scenes", tracing.DBOperationQuery)
	rows, err := r.db.QueryContext(ctx, query)
	end(err)
	if err != nil {
		return nil, StorageError{Op: "astropix_summary", Err: err}
	}
	defer rows.Close()

	out := make(map[string]map[string][]string)
	for rows.Next() {
		var id, handle, publisher, image string
		if err := rows.Scan(&id, &handle, &publisher, &image); err != nil {
			return nil, StorageError{Op: "astropix_summary", Err: err}
		}
		byImage, ok := out[publisher]
		if !ok {
			byImage = make(map[string][]string)
			out[publisher] = byImage
		}
		byImage[image] = []string{"@" + handle, id}
	}
	if err := rows.Err(); err != nil {
		return nil, StorageError{Op: "astropix_summary", Err: err}
	}
	return out, nil
}

// HandleSummary returns the dashboard projection for one handle.
func (r *PostgresRepository) HandleSummary(ctx context.Context, handle string, page, pageSize int) ([]Summary, error) {
	if page < 0 || pageSize <= 0 {
		return nil, nil
	}
	query := `
		SELECT id, creation_date, impressions, likes, clicks, shares, published, body_text
		FROM scenes WHERE handle = $1
		ORDER BY creation_date DESC
		LIMIT $2 OFFSET $3
	`
	ctx, end := tracing.StartDBSpan(ctx, "scenes", tracing.DBOperationQuery)
	rows, err := r.db.QueryContext(ctx, query, handle, pageSize, page*pageSize)
	end(err)
	if err != nil {
		return nil, StorageError{Op: "handle_summary", Err: err}
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Scene
		if err := rows.Scan(&s.ID, &s.CreationDate, &s.Impressions, &s.Likes,
			&s.Clicks, &s.Shares, &s.Published, &s.Text); err != nil {
			return nil, StorageError{Op: "handle_summary", Err: err}
		}
		out = append(out, summarize(&s))
	}
	if err := rows.Err(); err != nil {
		return nil, StorageError{Op: "handle_summary", Err: err}
	}
	return out, nil
}

// IDsByHandle returns the ids of every scene owned by the handle.
func (r *PostgresRepository) IDsByHandle(ctx context.Context, handle string) ([]string, error) {
	ctx, end := tracing.StartDBSpan(ctx, "scenes", tracing.DBOperationQuery)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM scenes WHERE handle = $1 ORDER BY id`, handle)
	end(err)
	if err != nil {
		return nil, StorageError{Op: "ids_by_handle", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, StorageError{Op: "ids_by_handle", Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, StorageError{Op: "ids_by_handle", Err: err}
	}
	return ids, nil
}

// PublishedPositions maps published scene ids to their places.
func (r *PostgresRepository) PublishedPositions(ctx context.Context) (map[string]Place, error) {
	query := `
		SELECT id, ra_rad, dec_rad, roll_rad, roi_height_deg, roi_aspect_ratio
		FROM scenes WHERE published
	`
	ctx, end := tracing.StartDBSpan(ctx, "scenes", tracing.DBOperationQuery)
	rows, err := r.db.QueryContext(ctx, query)
	end(err)
	if err != nil {
		return nil, StorageError{Op: "published_positions", Err: err}
	}
	defer rows.Close()

	out := make(map[string]Place)
	for rows.Next() {
		var id string
		var p Place
		if err := rows.Scan(&id, &p.RARad, &p.DecRad, &p.RollRad,
			&p.RoiHeightDeg, &p.RoiAspectRatio); err != nil {
			return nil, StorageError{Op: "published_positions", Err: err}
		}
		out[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, StorageError{Op: "published_positions", Err: err}
	}
	return out, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanScene(row scanner) (*Scene, error) {
	var (
		s          Scene
		background sql.NullString
		layers     []byte
		previews   []byte
		order      sql.NullFloat64
		apPub      sql.NullString
		apImg      sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.Handle, &s.CreationDate,
		&s.Impressions, &s.Likes, &s.Clicks, &s.Shares,
		&s.Place.RARad, &s.Place.DecRad, &s.Place.RollRad,
		&s.Place.RoiHeightDeg, &s.Place.RoiAspectRatio,
		&background, &layers, &previews,
		&s.OutgoingURL, &s.Text, &s.Published,
		&order, &apPub, &apImg,
	)
	if err != nil {
		return nil, err
	}
	if background.Valid {
		s.Content.BackgroundID = background.String
	}
	if err := json.Unmarshal(layers, &s.Content.ImageLayers); err != nil {
		return nil, fmt.Errorf("decode image_layers: %w", err)
	}
	if err := json.Unmarshal(previews, &s.Previews); err != nil {
		return nil, fmt.Errorf("decode previews: %w", err)
	}
	if order.Valid {
		s.HomeTimelineOrder = &order.Float64
	}
	if apPub.Valid && apImg.Valid {
		s.Astropix = &Astropix{PublisherID: apPub.String, ImageID: apImg.String}
	}
	return &s, nil
}

func previewsOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
