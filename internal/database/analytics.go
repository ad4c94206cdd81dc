package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/euacreations/streamvault/internal/models"
)

// InsertAnalyticsEvent appends one event row. Events carry no foreign keys;
// they may reference assets that have since been deleted.
func (r *Repository) InsertAnalyticsEvent(ctx context.Context, ev *models.AnalyticsEvent) error {
	data := ev.Data
	if data == nil {
		data = map[string]any{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return storeErr("marshal event data", err)
	}

	query := `INSERT INTO analytics (event_type, media_id, user_id, session_id, data)
		VALUES (?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		ev.Type,
		nullString(ev.MediaID),
		nullInt64(ev.UserID),
		nullString(ev.SessionID),
		string(dataJSON),
	)
	if err != nil {
		return storeErr("insert analytics event", err)
	}
	return nil
}

func (r *Repository) GetPopularMedia(ctx context.Context, limit int) ([]models.PopularMedia, error) {
	query := `SELECT mf.id, mf.title, mf.thumbnail_path,
			COUNT(a.id) AS play_count,
			COUNT(DISTINCT a.user_id) AS unique_viewers
		FROM media_files mf
		LEFT JOIN analytics a ON mf.id = a.media_id AND a.event_type = ?
		WHERE mf.status = ?
		GROUP BY mf.id, mf.title, mf.thumbnail_path
		ORDER BY play_count DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, models.EventPlay, models.StatusCompleted, limit)
	if err != nil {
		return nil, storeErr("get popular media", err)
	}
	defer rows.Close()

	var popular []models.PopularMedia
	for rows.Next() {
		var (
			p         models.PopularMedia
			thumbnail sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &thumbnail, &p.PlayCount, &p.UniqueViewers); err != nil {
			return nil, storeErr("scan popular media", err)
		}
		p.ThumbnailPath = thumbnail.String
		popular = append(popular, p)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("get popular media", err)
	}

	return popular, nil
}

func (r *Repository) GetUserEngagement(ctx context.Context, userID int64) (*models.UserEngagement, error) {
	engagement := &models.UserEngagement{}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analytics WHERE user_id = ? AND event_type = ?`,
		userID, models.EventPlay,
	).Scan(&engagement.TotalPlays)
	if err != nil {
		return nil, storeErr("count user plays", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CAST(JSON_EXTRACT(data, '$.duration') AS SIGNED)), 0)
		FROM analytics
		WHERE user_id = ? AND event_type = ?`,
		userID, models.EventWatchComplete,
	).Scan(&engagement.TotalWatchSeconds)
	if err != nil {
		return nil, storeErr("sum watch time", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT mf.category, COUNT(*) AS plays
		FROM analytics a
		JOIN media_files mf ON a.media_id = mf.id
		WHERE a.user_id = ? AND a.event_type = ?
		GROUP BY mf.category
		ORDER BY plays DESC
		LIMIT 5`,
		userID, models.EventPlay,
	)
	if err != nil {
		return nil, storeErr("get favorite categories", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cp models.CategoryPlays
		if err := rows.Scan(&cp.Category, &cp.Plays); err != nil {
			return nil, storeErr("scan favorite categories", err)
		}
		engagement.FavoriteCategories = append(engagement.FavoriteCategories, cp)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("get favorite categories", err)
	}

	return engagement, nil
}

// GetPlaybackStats aggregates play events per day over a trailing window.
func (r *Repository) GetPlaybackStats(ctx context.Context, days int) ([]models.PlaybackStat, error) {
	query := `SELECT DATE(timestamp) AS date,
			COUNT(*) AS plays,
			COUNT(DISTINCT user_id) AS unique_users,
			COUNT(DISTINCT media_id) AS unique_media
		FROM analytics
		WHERE event_type = ? AND timestamp >= NOW() - INTERVAL ? DAY
		GROUP BY DATE(timestamp)
		ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, models.EventPlay, days)
	if err != nil {
		return nil, storeErr("get playback stats", err)
	}
	defer rows.Close()

	var stats []models.PlaybackStat
	for rows.Next() {
		var (
			stat models.PlaybackStat
			date time.Time
		)
		if err := rows.Scan(&date, &stat.Plays, &stat.UniqueUsers, &stat.UniqueMedia); err != nil {
			return nil, storeErr("scan playback stats", err)
		}
		stat.Date = date.Format("2006-01-02")
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("get playback stats", err)
	}

	return stats, nil
}

func (r *Repository) GetSystemHealth(ctx context.Context) (*models.SystemHealth, error) {
	health := &models.SystemHealth{}

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT user_id), COALESCE(SUM(file_size), 0) FROM media_files`,
	).Scan(&health.TotalMediaFiles, &health.TotalUsers, &health.StorageUsedBytes)
	if err != nil {
		return nil, storeErr("get storage totals", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM analytics WHERE timestamp >= NOW() - INTERVAL 24 HOUR`,
	).Scan(&health.DailyActivity)
	if err != nil {
		return nil, storeErr("count daily activity", err)
	}

	return health, nil
}

// DeleteAnalyticsBefore is the retention sweep. It is safe to run while
// ingestion and playback writes continue.
func (r *Repository) DeleteAnalyticsBefore(ctx context.Context, horizon time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM analytics WHERE timestamp < ?`, horizon)
	if err != nil {
		return 0, storeErr("delete old analytics", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, storeErr("delete old analytics", err)
	}
	return deleted, nil
}
