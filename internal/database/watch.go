package database

import (
	"context"
	"database/sql"

	"github.com/euacreations/streamvault/internal/models"
)

// UpsertWatchProgress overwrites the (media, user) watch record, creating it
// on first report. Last write wins; the operation is idempotent.
func (r *Repository) UpsertWatchProgress(ctx context.Context, mediaID string, userID int64, position int, completed bool) error {
	query := `INSERT INTO watch_history
		(media_id, user_id, position, completed, watched_at)
		VALUES (?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
		position = VALUES(position),
		completed = VALUES(completed),
		watched_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, mediaID, userID, position, completed)
	if err != nil {
		return storeErr("upsert watch progress", err)
	}
	return nil
}

func (r *Repository) GetWatchHistory(ctx context.Context, userID int64) ([]models.WatchHistoryEntry, error) {
	query := `SELECT wh.media_id, wh.user_id, wh.position, wh.completed, wh.watched_at,
			mf.title, mf.thumbnail_path, mf.duration
		FROM watch_history wh
		JOIN media_files mf ON wh.media_id = mf.id
		WHERE wh.user_id = ?
		ORDER BY wh.watched_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, storeErr("get watch history", err)
	}
	defer rows.Close()

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var (
			entry     models.WatchHistoryEntry
			thumbnail sql.NullString
		)
		if err := rows.Scan(
			&entry.MediaID,
			&entry.UserID,
			&entry.Position,
			&entry.Completed,
			&entry.WatchedAt,
			&entry.Title,
			&thumbnail,
			&entry.DurationSeconds,
		); err != nil {
			return nil, storeErr("scan watch history", err)
		}
		entry.ThumbnailPath = thumbnail.String
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("get watch history", err)
	}

	return entries, nil
}
