package services

import (
	"context"
	"time"

	"github.com/euacreations/streamvault/internal/models"
	"github.com/rs/zerolog"
)

// EventData carries the optional attribution of an analytics event. Zero
// values are stored as NULL.
type EventData struct {
	MediaID   string
	UserID    int64
	SessionID string
	Payload   map[string]any
}

// AnalyticsRecorder writes usage events best-effort: a recording failure is
// logged and swallowed so it can never fail the operation that produced it.
// A nil recorder is valid and records nothing.
type AnalyticsRecorder struct {
	store         AnalyticsStore
	enabled       bool
	retentionDays int
	log           zerolog.Logger
}

func NewAnalyticsRecorder(store AnalyticsStore, enabled bool, retentionDays int, log zerolog.Logger) *AnalyticsRecorder {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &AnalyticsRecorder{
		store:         store,
		enabled:       enabled,
		retentionDays: retentionDays,
		log:           log,
	}
}

func (a *AnalyticsRecorder) Record(ctx context.Context, eventType models.EventType, data EventData) {
	if a == nil || !a.enabled {
		return
	}

	event := &models.AnalyticsEvent{
		Type:      eventType,
		MediaID:   data.MediaID,
		UserID:    data.UserID,
		SessionID: data.SessionID,
		Data:      data.Payload,
		Timestamp: time.Now().UTC(),
	}

	if err := a.store.InsertAnalyticsEvent(ctx, event); err != nil {
		a.log.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to record analytics event")
	}
}

func (a *AnalyticsRecorder) PopularMedia(ctx context.Context, limit int) ([]models.PopularMedia, error) {
	if limit <= 0 {
		limit = 10
	}
	return a.store.GetPopularMedia(ctx, limit)
}

func (a *AnalyticsRecorder) UserEngagement(ctx context.Context, userID int64) (*models.UserEngagement, error) {
	return a.store.GetUserEngagement(ctx, userID)
}

func (a *AnalyticsRecorder) PlaybackStats(ctx context.Context, days int) ([]models.PlaybackStat, error) {
	if days <= 0 {
		days = 7
	}
	return a.store.GetPlaybackStats(ctx, days)
}

func (a *AnalyticsRecorder) SystemHealth(ctx context.Context) (*models.SystemHealth, error) {
	return a.store.GetSystemHealth(ctx)
}

// CleanupOldData deletes events older than the retention window and returns
// the number removed.
func (a *AnalyticsRecorder) CleanupOldData(ctx context.Context) (int64, error) {
	if a == nil {
		return 0, nil
	}
	horizon := time.Now().UTC().AddDate(0, 0, -a.retentionDays)
	return a.store.DeleteAnalyticsBefore(ctx, horizon)
}
