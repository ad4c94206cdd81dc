package models

import "time"

type EventType string

const (
	EventUploadStart    EventType = "upload_start"
	EventUploadComplete EventType = "upload_complete"
	EventUploadError    EventType = "upload_error"
	EventPlay           EventType = "play"
	EventWatchComplete  EventType = "watch_complete"
	EventSearch         EventType = "search"
	EventDelete         EventType = "delete"
)

// AnalyticsEvent is append-only. Rows may outlive the asset they reference;
// no foreign-key integrity is enforced against deleted media.
type AnalyticsEvent struct {
	ID        int64          `json:"id"`
	Type      EventType      `json:"event_type"`
	MediaID   string         `json:"media_id,omitempty"`
	UserID    int64          `json:"user_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type PopularMedia struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	PlayCount     int64  `json:"play_count"`
	UniqueViewers int64  `json:"unique_viewers"`
}

type CategoryPlays struct {
	Category string `json:"category"`
	Plays    int64  `json:"plays"`
}

type UserEngagement struct {
	TotalPlays         int64           `json:"total_plays"`
	TotalWatchSeconds  int64           `json:"total_watch_time"`
	FavoriteCategories []CategoryPlays `json:"favorite_categories"`
}

type PlaybackStat struct {
	Date        string `json:"date"`
	Plays       int64  `json:"plays"`
	UniqueUsers int64  `json:"unique_users"`
	UniqueMedia int64  `json:"unique_media"`
}

type SystemHealth struct {
	TotalMediaFiles  int64 `json:"total_media_files"`
	TotalUsers       int64 `json:"total_users"`
	StorageUsedBytes int64 `json:"storage_used"`
	DailyActivity    int64 `json:"daily_activity"`
}
