package services

import (
	"context"
	"time"

	"github.com/euacreations/streamvault/internal/database"
	"github.com/euacreations/streamvault/internal/models"
	"github.com/euacreations/streamvault/pkg/ffmpeg"
)

// Prober inspects a media file for its technical facts without mutating it.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
}

// Transcoder performs one blocking re-encode of input into output. It must
// remove any partial output on failure or cancellation.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, opts ffmpeg.Options) error
}

// Thumbnailer extracts a single representative frame.
type Thumbnailer interface {
	Generate(ctx context.Context, inputPath, outputPath string, atFraction float64) error
}

// CatalogStore is the slice of the repository the pipeline mutates.
type CatalogStore interface {
	InsertPendingMedia(ctx context.Context, asset *models.MediaAsset) error
	UpdateMediaStatus(ctx context.Context, id string, status models.MediaStatus, fields *database.PublishedFields) error
	GetMediaByID(ctx context.Context, id string) (*models.MediaAsset, error)
	DeleteMedia(ctx context.Context, id string) error
}

// CatalogReadStore serves listing and lookup.
type CatalogReadStore interface {
	GetMediaByID(ctx context.Context, id string) (*models.MediaAsset, error)
	QueryMedia(ctx context.Context, filters database.MediaFilters) ([]*models.MediaAsset, error)
}

// WatchStore persists per-(asset,user) progress.
type WatchStore interface {
	GetMediaByID(ctx context.Context, id string) (*models.MediaAsset, error)
	UpsertWatchProgress(ctx context.Context, mediaID string, userID int64, position int, completed bool) error
	GetWatchHistory(ctx context.Context, userID int64) ([]models.WatchHistoryEntry, error)
}

// AnalyticsStore is the event log plus its read-side aggregates.
type AnalyticsStore interface {
	InsertAnalyticsEvent(ctx context.Context, ev *models.AnalyticsEvent) error
	GetPopularMedia(ctx context.Context, limit int) ([]models.PopularMedia, error)
	GetUserEngagement(ctx context.Context, userID int64) (*models.UserEngagement, error)
	GetPlaybackStats(ctx context.Context, days int) ([]models.PlaybackStat, error)
	GetSystemHealth(ctx context.Context) (*models.SystemHealth, error)
	DeleteAnalyticsBefore(ctx context.Context, horizon time.Time) (int64, error)
}

// SweepStore is what the recovery sweep needs.
type SweepStore interface {
	ListStuckIngestions(ctx context.Context, olderThan time.Time) ([]*models.MediaAsset, error)
	UpdateMediaStatus(ctx context.Context, id string, status models.MediaStatus, fields *database.PublishedFields) error
}

// Notifier fans pipeline events out to realtime observers. Implementations
// must never block the caller.
type Notifier interface {
	Publish(ev models.PipelineEvent)
}
