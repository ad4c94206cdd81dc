package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/euacreations/streamvault/internal/models"
)

// MediaFilters narrows QueryMedia results. Zero values mean "no filter".
type MediaFilters struct {
	Category string
	Search   string
	Limit    int
	Offset   int

	// IncludeAll lists assets in every lifecycle state. The default is
	// completed-only, which is what playback listings must see.
	IncludeAll bool
}

// PublishedFields are the authoritative facts written alongside the terminal
// status in the single publish update.
type PublishedFields struct {
	FilePath        string
	ThumbnailPath   string
	FileSizeBytes   int64
	DurationSeconds int
	Resolution      string
	BitrateBPS      int64
	Codec           string
	Container       string
}

const mediaColumns = `id, title, description, category, tags, file_path, thumbnail_path,
	file_size, duration, resolution, bitrate, codec, container, status, user_id, uploaded_at`

func (r *Repository) InsertPendingMedia(ctx context.Context, asset *models.MediaAsset) error {
	tags := asset.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return storeErr("marshal tags", err)
	}

	query := `INSERT INTO media_files
		(id, title, description, category, tags, status, user_id, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		asset.ID,
		asset.Title,
		asset.Description,
		asset.Category,
		string(tagsJSON),
		asset.Status,
		asset.OwnerUserID,
		asset.UploadedAt,
	)
	if err != nil {
		return storeErr("insert media", err)
	}
	return nil
}

// UpdateMediaStatus performs the atomic single-row lifecycle transition. A
// nil fields updates only the status; the publish write passes the final
// facts so they land together with the completed status.
func (r *Repository) UpdateMediaStatus(ctx context.Context, id string, status models.MediaStatus, fields *PublishedFields) error {
	var (
		result sql.Result
		err    error
	)

	if fields == nil {
		result, err = r.db.ExecContext(ctx,
			`UPDATE media_files SET status = ? WHERE id = ?`, status, id)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE media_files SET
				status = ?, file_path = ?, thumbnail_path = ?, file_size = ?,
				duration = ?, resolution = ?, bitrate = ?, codec = ?, container = ?
			WHERE id = ?`,
			status,
			fields.FilePath,
			nullString(fields.ThumbnailPath),
			fields.FileSizeBytes,
			fields.DurationSeconds,
			nullString(fields.Resolution),
			fields.BitrateBPS,
			nullString(fields.Codec),
			nullString(fields.Container),
			id,
		)
	}
	if err != nil {
		return storeErr("update media status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storeErr("update media status", err)
	}
	if affected == 0 {
		// MySQL also reports zero affected rows for no-op updates, so only
		// a genuinely missing row maps to not found.
		exists, err := r.mediaExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return models.ErrNotFound
		}
	}
	return nil
}

func (r *Repository) mediaExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM media_files WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, storeErr("media exists", err)
	}
	return exists, nil
}

func (r *Repository) GetMediaByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_files WHERE id = ?`

	asset, err := scanMediaAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storeErr("get media", err)
	}
	return asset, nil
}

func (r *Repository) QueryMedia(ctx context.Context, filters MediaFilters) ([]*models.MediaAsset, error) {
	query, params := buildMediaQuery(filters)

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, storeErr("query media", err)
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		asset, err := scanMediaAsset(rows)
		if err != nil {
			return nil, storeErr("scan media", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("query media", err)
	}

	return assets, nil
}

func buildMediaQuery(filters MediaFilters) (string, []any) {
	query := `SELECT ` + mediaColumns + ` FROM media_files`

	var conds []string
	var params []any

	if !filters.IncludeAll {
		conds = append(conds, "status = ?")
		params = append(params, models.StatusCompleted)
	}
	if filters.Category != "" {
		conds = append(conds, "category = ?")
		params = append(params, filters.Category)
	}
	if filters.Search != "" {
		conds = append(conds, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + filters.Search + "%"
		params = append(params, pattern, pattern)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY uploaded_at DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		params = append(params, filters.Limit)
		if filters.Offset > 0 {
			query += " OFFSET ?"
			params = append(params, filters.Offset)
		}
	}

	return query, params
}

// DeleteMedia removes the catalog row and its watch records in one
// transaction. The caller owns removing the on-disk files first. The watch
// history cascade runs even when the row is already gone, so a retry after a
// crash mid-delete still removes orphaned records.
func (r *Repository) DeleteMedia(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("delete media", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM media_files WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete media", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storeErr("delete media", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM watch_history WHERE media_id = ?`, id); err != nil {
		return storeErr("delete watch history", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("delete media", err)
	}

	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListStuckIngestions returns assets still in pending or processing whose
// last update is older than the cutoff; the recovery sweep fails them. A
// pending row goes stale when the process dies between row creation and the
// processing transition.
func (r *Repository) ListStuckIngestions(ctx context.Context, olderThan time.Time) ([]*models.MediaAsset, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_files
		WHERE status IN (?, ?) AND updated_at < ?`

	rows, err := r.db.QueryContext(ctx, query, models.StatusPending, models.StatusProcessing, olderThan)
	if err != nil {
		return nil, storeErr("list stuck ingestions", err)
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		asset, err := scanMediaAsset(rows)
		if err != nil {
			return nil, storeErr("scan media", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("list stuck ingestions", err)
	}

	return assets, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMediaAsset(row rowScanner) (*models.MediaAsset, error) {
	var (
		asset      models.MediaAsset
		tagsJSON   sql.NullString
		filePath   sql.NullString
		thumbnail  sql.NullString
		resolution sql.NullString
		codec      sql.NullString
		container  sql.NullString
	)

	err := row.Scan(
		&asset.ID,
		&asset.Title,
		&asset.Description,
		&asset.Category,
		&tagsJSON,
		&filePath,
		&thumbnail,
		&asset.FileSizeBytes,
		&asset.DurationSeconds,
		&resolution,
		&asset.BitrateBPS,
		&codec,
		&container,
		&asset.Status,
		&asset.OwnerUserID,
		&asset.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	asset.FilePath = filePath.String
	asset.ThumbnailPath = thumbnail.String
	asset.Resolution = resolution.String
	asset.Codec = codec.String
	asset.Container = container.String

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &asset.Tags); err != nil {
			return nil, fmt.Errorf("failed to parse tags for %s: %w", asset.ID, err)
		}
	}
	if asset.Tags == nil {
		asset.Tags = []string{}
	}

	return &asset, nil
}
