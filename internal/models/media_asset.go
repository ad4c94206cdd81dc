package models

import "time"

type MediaStatus string

const (
	StatusPending    MediaStatus = "pending"
	StatusProcessing MediaStatus = "processing"
	StatusCompleted  MediaStatus = "completed"
	StatusFailed     MediaStatus = "failed"
)

// WatchCompleteFraction is the platform policy for marking a watch record
// completed: clients report completed=true once playback passes this fraction
// of the asset duration. The server stores the flag as reported.
const WatchCompleteFraction = 0.9

type MediaAsset struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	Tags            []string    `json:"tags"`
	FilePath        string      `json:"file_path,omitempty"`
	ThumbnailPath   string      `json:"thumbnail_path,omitempty"`
	FileSizeBytes   int64       `json:"file_size"`
	DurationSeconds int         `json:"duration"`
	Resolution      string      `json:"resolution,omitempty"`
	BitrateBPS      int64       `json:"bitrate"`
	Codec           string      `json:"codec,omitempty"`
	Container       string      `json:"container,omitempty"`
	Status          MediaStatus `json:"status"`
	OwnerUserID     int64       `json:"user_id"`
	UploadedAt      time.Time   `json:"uploaded_at"`
}

// UploadMetadata is supplied by the upload-handling collaborator alongside
// the temporary file it has already written to disk.
type UploadMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	OwnerUserID int64    `json:"user_id"`
}
