package models

import "time"

type WatchRecord struct {
	MediaID   string    `json:"media_id"`
	UserID    int64     `json:"user_id"`
	Position  int       `json:"position"`
	Completed bool      `json:"completed"`
	WatchedAt time.Time `json:"watched_at"`
}

// WatchHistoryEntry is a watch record joined with the asset fields the
// history view needs.
type WatchHistoryEntry struct {
	WatchRecord
	Title           string `json:"title"`
	ThumbnailPath   string `json:"thumbnail_path,omitempty"`
	DurationSeconds int    `json:"duration"`
}
