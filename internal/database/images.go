package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tournament-admin/internal/logging"
	"tournament-admin/internal/metrics"
)

// ErrNotFound is returned when an image ID does not exist.
var ErrNotFound = errors.New("image not found")

// selectColumns is the full column list, in scan order.
const selectColumns = `id, category, image_url, thumbnail_url, title, description, tags,
	active, approved, file_size, image_width, image_height, mime_type,
	total_views, total_selections, win_rate, approved_by, approved_at,
	upload_date, updated_at`

// Insert stores a new catalog row and returns its assigned ID.
func (d *Database) Insert(ctx context.Context, rec NewImageRecord) (int64, error) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("insert_image", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.pool.QueryRow(queryCtx, `
		INSERT INTO tournament_images
			(category, image_url, thumbnail_url, title, description, tags,
			 active, approved, file_size, image_width, image_height, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		rec.Category, rec.ImageURL, rec.ThumbnailURL, rec.Title, rec.Description,
		rec.Tags, rec.Active, rec.Approved, rec.FileSize, rec.ImageWidth,
		rec.ImageHeight, rec.MimeType,
	).Scan(&id)
	if err != nil {
		err = fmt.Errorf("failed to insert image: %w", err)
		logging.Error("Insert failed for category %s: %v", rec.Category, err)
		return 0, err
	}

	return id, nil
}

// GetByID fetches a single image.
func (d *Database) GetByID(ctx context.Context, id int64) (*TournamentImage, error) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("get_image", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.pool.QueryRow(queryCtx,
		`SELECT `+selectColumns+` FROM tournament_images WHERE id = $1`, id)

	img, err := scanImage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrNotFound
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("failed to fetch image %d: %w", id, err)
		return nil, err
	}
	return img, nil
}

// Query lists images matching the filters, newest uploads first.
func (d *Database) Query(ctx context.Context, f QueryFilters, limit, offset int) ([]TournamentImage, error) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("query_images", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sql, args := buildImageQuery(f, limit, offset)
	rows, err := d.pool.Query(queryCtx, sql, args...)
	if err != nil {
		err = fmt.Errorf("failed to query images: %w", err)
		logging.Error("Query failed (filters %+v): %v", f, err)
		return nil, err
	}
	defer rows.Close()

	images := []TournamentImage{}
	for rows.Next() {
		img, scanErr := scanImage(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan image row: %w", scanErr)
			return nil, err
		}
		images = append(images, *img)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to read image rows: %w", err)
		return nil, err
	}

	return images, nil
}

// Update applies a partial update and stamps updated_at. Returns
// ErrNotFound when the row does not exist and an error when the update
// carries no fields.
func (d *Database) Update(ctx context.Context, id int64, u ImageUpdate) error {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("update_image", start, err) }()

	sql, args, err := buildImageUpdate(id, u)
	if err != nil {
		return err
	}

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := d.pool.Exec(queryCtx, sql, args...)
	if err != nil {
		err = fmt.Errorf("failed to update image %d: %w", id, err)
		logging.Error("Update failed: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// SetApproval flips the approval flag for one image. Approving stamps
// approved_by and approved_at; rejecting only clears the flag (the
// stale reviewer columns are tolerated, matching the catalog's
// historical behavior).
func (d *Database) SetApproval(ctx context.Context, id int64, approved bool, approvedBy string) error {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("set_approval", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var tag pgconn.CommandTag
	if approved {
		tag, err = d.pool.Exec(queryCtx, `
			UPDATE tournament_images
			SET approved = true, approved_by = $2, approved_at = NOW(), updated_at = NOW()
			WHERE id = $1`, id, approvedBy)
	} else {
		tag, err = d.pool.Exec(queryCtx, `
			UPDATE tournament_images
			SET approved = false, updated_at = NOW()
			WHERE id = $1`, id)
	}
	if err != nil {
		err = fmt.Errorf("failed to set approval for image %d: %w", id, err)
		logging.Error("SetApproval failed: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// BulkSetApproval applies one approval flip to an ID set in a single
// statement. Rows that do not exist are silently skipped.
func (d *Database) BulkSetApproval(ctx context.Context, ids []int64, approved bool, approvedBy string) error {
	if len(ids) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("bulk_set_approval", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if approved {
		_, err = d.pool.Exec(queryCtx, `
			UPDATE tournament_images
			SET approved = true, approved_by = $2, approved_at = NOW(), updated_at = NOW()
			WHERE id = ANY($1)`, ids, approvedBy)
	} else {
		_, err = d.pool.Exec(queryCtx, `
			UPDATE tournament_images
			SET approved = false, updated_at = NOW()
			WHERE id = ANY($1)`, ids)
	}
	if err != nil {
		err = fmt.Errorf("failed to bulk-set approval: %w", err)
		logging.Error("BulkSetApproval failed for %d ids: %v", len(ids), err)
		return err
	}
	return nil
}

// BulkSetActive flips the active flag per row, stopping at the first
// failure. Rows updated before the failure stay updated; there is no
// compensation. Returns how many rows were applied.
func (d *Database) BulkSetActive(ctx context.Context, ids []int64, active bool) (int, error) {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("bulk_set_active", start, err) }()

	applied := 0
	for _, id := range ids {
		queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		_, err = d.pool.Exec(queryCtx, `
			UPDATE tournament_images SET active = $2, updated_at = NOW() WHERE id = $1`,
			id, active)
		cancel()
		if err != nil {
			err = fmt.Errorf("failed to set active for image %d (after %d applied): %w", id, applied, err)
			logging.Error("BulkSetActive aborted: %v", err)
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// SoftDelete hides an image from default listings.
func (d *Database) SoftDelete(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("soft_delete_image", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := d.pool.Exec(queryCtx,
		`UPDATE tournament_images SET active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		err = fmt.Errorf("failed to soft-delete image %d: %w", id, err)
		logging.Error("SoftDelete failed: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// HardDelete removes the row permanently. Not the default path; the
// caller is responsible for artifact cleanup.
func (d *Database) HardDelete(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { metrics.RecordDBQuery("hard_delete_image", start, err) }()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := d.pool.Exec(queryCtx, `DELETE FROM tournament_images WHERE id = $1`, id)
	if err != nil {
		err = fmt.Errorf("failed to delete image %d: %w", id, err)
		logging.Error("HardDelete failed: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// buildImageQuery constructs the filtered listing statement.
func buildImageQuery(f QueryFilters, limit, offset int) (string, []any) {
	var conditions []string
	var args []any

	if f.Category != "" {
		args = append(args, f.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.ActiveOnly {
		conditions = append(conditions, "active = true")
	}
	if f.ApprovedOnly {
		conditions = append(conditions, "approved = true")
	}
	if f.SearchTerm != "" {
		pattern := "%" + f.SearchTerm + "%"
		args = append(args, pattern, pattern, f.SearchTerm)
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR $%d = ANY(tags))",
			len(args)-2, len(args)-1, len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit, offset)
	sql := fmt.Sprintf(`SELECT %s FROM tournament_images %s ORDER BY upload_date DESC LIMIT $%d OFFSET $%d`,
		selectColumns, where, len(args)-1, len(args))

	return sql, args
}

// buildImageUpdate constructs a partial update statement. Approving via
// a partial update also stamps approved_at.
func buildImageUpdate(id int64, u ImageUpdate) (string, []any, error) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Category != nil {
		add("category", *u.Category)
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Tags != nil {
		add("tags", *u.Tags)
	}
	if u.Active != nil {
		add("active", *u.Active)
	}
	if u.Approved != nil {
		add("approved", *u.Approved)
		if *u.Approved {
			sets = append(sets, "approved_at = NOW()")
			if u.ApprovedBy != nil {
				add("approved_by", *u.ApprovedBy)
			}
		}
	}

	if len(sets) == 0 {
		return "", nil, fmt.Errorf("update for image %d carries no fields", id)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	sql := fmt.Sprintf("UPDATE tournament_images SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	return sql, args, nil
}

// scanImage reads one row in selectColumns order.
func scanImage(row pgx.Row) (*TournamentImage, error) {
	var img TournamentImage
	err := row.Scan(
		&img.ID, &img.Category, &img.ImageURL, &img.ThumbnailURL,
		&img.Title, &img.Description, &img.Tags,
		&img.Active, &img.Approved,
		&img.FileSize, &img.ImageWidth, &img.ImageHeight, &img.MimeType,
		&img.TotalViews, &img.TotalSelections, &img.WinRate,
		&img.ApprovedBy, &img.ApprovedAt,
		&img.UploadDate, &img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}
