package services

import (
	"context"
	"testing"

	"github.com/euacreations/streamvault/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watchKey struct {
	mediaID string
	userID  int64
}

type fakeWatchStore struct {
	assets  map[string]*models.MediaAsset
	records map[watchKey]*models.WatchRecord
	upserts int
}

func newFakeWatchStore(assets ...*models.MediaAsset) *fakeWatchStore {
	s := &fakeWatchStore{
		assets:  make(map[string]*models.MediaAsset),
		records: make(map[watchKey]*models.WatchRecord),
	}
	for _, a := range assets {
		s.assets[a.ID] = a
	}
	return s
}

func (s *fakeWatchStore) GetMediaByID(_ context.Context, id string) (*models.MediaAsset, error) {
	asset, ok := s.assets[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return asset, nil
}

func (s *fakeWatchStore) UpsertWatchProgress(_ context.Context, mediaID string, userID int64, position int, completed bool) error {
	s.upserts++
	s.records[watchKey{mediaID, userID}] = &models.WatchRecord{
		MediaID:   mediaID,
		UserID:    userID,
		Position:  position,
		Completed: completed,
	}
	return nil
}

func (s *fakeWatchStore) GetWatchHistory(_ context.Context, userID int64) ([]models.WatchHistoryEntry, error) {
	var out []models.WatchHistoryEntry
	for _, rec := range s.records {
		if rec.UserID != userID {
			continue
		}
		out = append(out, models.WatchHistoryEntry{
			WatchRecord: *rec,
			Title:       s.assets[rec.MediaID].Title,
		})
	}
	return out, nil
}

func testAsset(id string) *models.MediaAsset {
	return &models.MediaAsset{
		ID:              id,
		Title:           "Asset " + id,
		DurationSeconds: 100,
		Status:          models.StatusCompleted,
	}
}

func TestRecordProgressUpsertsSingleRow(t *testing.T) {
	store := newFakeWatchStore(testAsset("m1"))
	tracker := NewWatchTracker(store, nil, zerolog.Nop())

	first, err := tracker.Record(context.Background(), "m1", 5, 30, false)
	require.NoError(t, err)
	assert.Equal(t, 30, first.Position)
	assert.False(t, first.Completed)

	second, err := tracker.Record(context.Background(), "m1", 5, 95, true)
	require.NoError(t, err)
	assert.Equal(t, 95, second.Position)
	assert.True(t, second.Completed)

	require.Len(t, store.records, 1, "repeated reports must converge on one row")
	stored := store.records[watchKey{"m1", 5}]
	assert.Equal(t, 95, stored.Position)
	assert.True(t, stored.Completed)
	assert.Equal(t, 2, store.upserts)
}

func TestRecordProgressCompletedEmitsAnalytics(t *testing.T) {
	store := newFakeWatchStore(testAsset("m1"))
	analytics := &fakeAnalyticsStore{}
	tracker := NewWatchTracker(store, NewAnalyticsRecorder(analytics, true, 90, zerolog.Nop()), zerolog.Nop())

	_, err := tracker.Record(context.Background(), "m1", 5, 50, false)
	require.NoError(t, err)
	assert.Empty(t, analytics.events)

	_, err = tracker.Record(context.Background(), "m1", 5, 95, true)
	require.NoError(t, err)

	require.Len(t, analytics.events, 1)
	assert.Equal(t, models.EventWatchComplete, analytics.events[0].Type)
	assert.Equal(t, "m1", analytics.events[0].MediaID)
}

func TestRecordProgressRejectsNegativePosition(t *testing.T) {
	store := newFakeWatchStore(testAsset("m1"))
	tracker := NewWatchTracker(store, nil, zerolog.Nop())

	_, err := tracker.Record(context.Background(), "m1", 5, -1, false)
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, store.records)
}

func TestRecordProgressUnknownMedia(t *testing.T) {
	store := newFakeWatchStore()
	tracker := NewWatchTracker(store, nil, zerolog.Nop())

	_, err := tracker.Record(context.Background(), "ghost", 5, 10, false)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHistoryScopedToUser(t *testing.T) {
	store := newFakeWatchStore(testAsset("m1"), testAsset("m2"))
	tracker := NewWatchTracker(store, nil, zerolog.Nop())

	_, err := tracker.Record(context.Background(), "m1", 5, 10, false)
	require.NoError(t, err)
	_, err = tracker.Record(context.Background(), "m2", 6, 20, false)
	require.NoError(t, err)

	history, err := tracker.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "m1", history[0].MediaID)
	assert.Equal(t, "Asset m1", history[0].Title)
}
