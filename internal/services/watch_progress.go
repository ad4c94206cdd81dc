package services

import (
	"context"
	"time"

	"github.com/euacreations/streamvault/internal/models"
	"github.com/rs/zerolog"
)

// WatchTracker persists per-user playback positions. One record exists per
// (media, user) pair; repeated reports overwrite it, so retried or
// out-of-order requests converge on the last written state.
type WatchTracker struct {
	store     WatchStore
	analytics *AnalyticsRecorder
	log       zerolog.Logger
}

func NewWatchTracker(store WatchStore, analytics *AnalyticsRecorder, log zerolog.Logger) *WatchTracker {
	return &WatchTracker{
		store:     store,
		analytics: analytics,
		log:       log,
	}
}

// Record upserts the playback position for a media/user pair. The media must
// exist; a negative position is rejected. The completed flag is supplied by
// the caller, which owns the completion threshold policy; a completed report
// is recorded as a watch_complete analytics event.
func (t *WatchTracker) Record(ctx context.Context, mediaID string, userID int64, positionSeconds int, completed bool) (*models.WatchRecord, error) {
	if positionSeconds < 0 {
		return nil, &models.ValidationError{Reason: "position cannot be negative"}
	}

	if _, err := t.store.GetMediaByID(ctx, mediaID); err != nil {
		return nil, err
	}

	if err := t.store.UpsertWatchProgress(ctx, mediaID, userID, positionSeconds, completed); err != nil {
		return nil, err
	}

	if completed {
		t.analytics.Record(ctx, models.EventWatchComplete, EventData{
			MediaID: mediaID,
			UserID:  userID,
			Payload: map[string]any{"duration": positionSeconds},
		})
	}

	return &models.WatchRecord{
		MediaID:   mediaID,
		UserID:    userID,
		Position:  positionSeconds,
		Completed: completed,
		WatchedAt: time.Now().UTC(),
	}, nil
}

// History returns the user's watch records, most recent first, joined with
// the catalog fields a client needs to render a resume list.
func (t *WatchTracker) History(ctx context.Context, userID int64) ([]models.WatchHistoryEntry, error) {
	return t.store.GetWatchHistory(ctx, userID)
}
