package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/euacreations/streamvault/internal/models"
	"github.com/rs/zerolog"
)

// Sweeper repairs state a crashed or killed process left behind: rows stuck
// in processing, orphaned temp files and expired analytics events.
type Sweeper struct {
	store      SweepStore
	analytics  *AnalyticsRecorder
	tempDir    string
	staleAfter time.Duration
	log        zerolog.Logger
}

func NewSweeper(store SweepStore, analytics *AnalyticsRecorder, tempDir string, staleAfter time.Duration, log zerolog.Logger) *Sweeper {
	if staleAfter <= 0 {
		staleAfter = time.Hour
	}
	return &Sweeper{
		store:      store,
		analytics:  analytics,
		tempDir:    tempDir,
		staleAfter: staleAfter,
		log:        log,
	}
}

// Run performs one sweep pass. Each phase logs and continues on error so one
// failing phase cannot starve the others.
func (s *Sweeper) Run(ctx context.Context) {
	s.reconcileStuck(ctx)
	s.sweepTempFiles()
	s.cleanupAnalytics(ctx)
}

// reconcileStuck marks rows abandoned mid-ingestion as failed. A row is
// considered abandoned when it has sat in pending or processing past the
// stale window with no writes; a live ingestion touches its row on every
// transition.
func (s *Sweeper) reconcileStuck(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.staleAfter)

	stuck, err := s.store.ListStuckIngestions(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list stuck ingestions")
		return
	}

	for _, asset := range stuck {
		if err := s.store.UpdateMediaStatus(ctx, asset.ID, models.StatusFailed, nil); err != nil {
			s.log.Error().Err(err).Str("asset_id", asset.ID).Msg("failed to mark stuck asset failed")
			continue
		}
		s.log.Warn().Str("asset_id", asset.ID).Msg("marked abandoned ingestion as failed")
	}
}

// sweepTempFiles removes temp uploads older than the stale window. Fresh
// files may belong to an in-flight ingestion and are left alone.
func (s *Sweeper) sweepTempFiles() {
	if s.tempDir == "" {
		return
	}

	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Error().Err(err).Str("dir", s.tempDir).Msg("failed to read temp directory")
		}
		return
	}

	cutoff := time.Now().Add(-s.staleAfter)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.tempDir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to remove stale temp file")
			continue
		}
		s.log.Info().Str("path", path).Msg("removed stale temp file")
	}
}

func (s *Sweeper) cleanupAnalytics(ctx context.Context) {
	deleted, err := s.analytics.CleanupOldData(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to clean up analytics events")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("purged expired analytics events")
	}
}
