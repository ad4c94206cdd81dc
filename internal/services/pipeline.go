package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/euacreations/streamvault/internal/database"
	"github.com/euacreations/streamvault/internal/models"
	"github.com/euacreations/streamvault/pkg/ffmpeg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CanonicalFormat is the platform's target delivery format. The transcoding
// decision compares probed facts against it; bitrates are bits per second.
type CanonicalFormat struct {
	Container           string
	VideoCodec          string
	AudioCodec          string
	Resolution          string
	VideoBitrateCeiling int64
	AudioBitrate        int64
	Preset              string
}

type StoragePaths struct {
	TempDir      string
	MediaDir     string
	ThumbnailDir string
}

type PipelineConfig struct {
	Storage          StoragePaths
	Canonical        CanonicalFormat
	TranscodeTimeout time.Duration
	PublishRetries   int
}

// MediaPipeline drives an uploaded file through probe, conditional
// transcode, thumbnail generation and atomic catalog publication. Each call
// to Process mints a fresh asset id, so concurrent ingestions never contend
// on a row or a file path.
type MediaPipeline struct {
	store      CatalogStore
	prober     Prober
	transcoder Transcoder
	thumbs     Thumbnailer
	notifier   Notifier
	analytics  *AnalyticsRecorder
	cfg        PipelineConfig
	log        zerolog.Logger
}

func NewMediaPipeline(
	store CatalogStore,
	prober Prober,
	transcoder Transcoder,
	thumbs Thumbnailer,
	notifier Notifier,
	analytics *AnalyticsRecorder,
	cfg PipelineConfig,
	log zerolog.Logger,
) (*MediaPipeline, error) {
	for _, dir := range []string{cfg.Storage.TempDir, cfg.Storage.MediaDir, cfg.Storage.ThumbnailDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	if cfg.PublishRetries <= 0 {
		cfg.PublishRetries = 3
	}

	return &MediaPipeline{
		store:      store,
		prober:     prober,
		transcoder: transcoder,
		thumbs:     thumbs,
		notifier:   notifier,
		analytics:  analytics,
		cfg:        cfg,
		log:        log,
	}, nil
}

// Process ingests the file at sourcePath. It returns the published asset, or
// the error of the phase that failed after recording a terminal status.
// Ownership of the source file transfers to the pipeline once validation
// passes; it is removed on every exit path.
func (p *MediaPipeline) Process(ctx context.Context, sourcePath string, meta models.UploadMetadata) (*models.MediaAsset, error) {
	if err := validateSource(sourcePath); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	log := p.log.With().Str("asset_id", id).Logger()

	asset := &models.MediaAsset{
		ID:          id,
		Title:       meta.Title,
		Description: meta.Description,
		Category:    meta.Category,
		Tags:        meta.Tags,
		Status:      models.StatusPending,
		OwnerUserID: meta.OwnerUserID,
		UploadedAt:  time.Now().UTC(),
	}
	if asset.Title == "" {
		base := filepath.Base(sourcePath)
		asset.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if asset.Category == "" {
		asset.Category = "General"
	}

	if err := p.store.InsertPendingMedia(ctx, asset); err != nil {
		p.removeTemp(log, sourcePath)
		return nil, err
	}
	defer p.removeTemp(log, sourcePath)

	published, err := p.run(ctx, log, asset, sourcePath)
	if err != nil {
		log.Error().Err(err).Msg("ingestion failed")
		p.notify(models.PipelineUploadError, id, map[string]any{"error": err.Error()})
		p.analytics.Record(ctx, models.EventUploadError, EventData{
			MediaID: id,
			UserID:  meta.OwnerUserID,
			Payload: map[string]any{"error": err.Error()},
		})
		return nil, err
	}

	log.Info().Str("file_path", published.FilePath).Msg("ingestion completed")
	p.notify(models.PipelineUploadComplete, id, map[string]any{"title": published.Title})
	p.analytics.Record(ctx, models.EventUploadComplete, EventData{
		MediaID: id,
		UserID:  meta.OwnerUserID,
	})
	return published, nil
}

func (p *MediaPipeline) run(ctx context.Context, log zerolog.Logger, asset *models.MediaAsset, sourcePath string) (*models.MediaAsset, error) {
	source, err := p.prober.Probe(ctx, sourcePath)
	if err != nil {
		p.markFailed(log, asset.ID)
		return nil, err
	}

	finalPath := filepath.Join(p.cfg.Storage.MediaDir, asset.ID+"."+p.cfg.Canonical.Container)
	thumbPath := filepath.Join(p.cfg.Storage.ThumbnailDir, asset.ID+".jpg")

	if err := p.store.UpdateMediaStatus(ctx, asset.ID, models.StatusProcessing, nil); err != nil {
		return nil, err
	}

	if needsTranscode(source, p.cfg.Canonical) {
		log.Info().
			Str("codec", source.VideoCodec).
			Str("resolution", source.Resolution).
			Int64("bitrate", source.BitrateBPS).
			Msg("re-encoding source to canonical format")
		err = p.transcode(ctx, asset.ID, sourcePath, finalPath, source)
	} else {
		log.Info().Msg("source already canonical, copying verbatim")
		err = copyFile(sourcePath, finalPath)
	}
	if err != nil {
		removeFile(finalPath)
		p.markFailed(log, asset.ID)
		return nil, err
	}

	thumbnail := thumbPath
	if err := p.thumbs.Generate(ctx, finalPath, thumbPath, ffmpeg.DefaultThumbnailFraction); err != nil {
		// Non-fatal: the asset completes without a thumbnail and consumers
		// fall back to a placeholder.
		log.Warn().Err(err).Msg("thumbnail generation failed")
		thumbnail = ""
	}

	final, err := p.prober.Probe(ctx, finalPath)
	if err != nil {
		removeFile(finalPath)
		removeFile(thumbnail)
		p.markFailed(log, asset.ID)
		return nil, err
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		removeFile(thumbnail)
		p.markFailed(log, asset.ID)
		return nil, &models.TranscodeError{Reason: "final output missing", Err: err}
	}

	fields := &database.PublishedFields{
		FilePath:        finalPath,
		ThumbnailPath:   thumbnail,
		FileSizeBytes:   info.Size(),
		DurationSeconds: int(math.Round(final.DurationSeconds)),
		Resolution:      final.Resolution,
		BitrateBPS:      final.BitrateBPS,
		Codec:           final.VideoCodec,
		Container:       containerName(final, p.cfg.Canonical.Container),
	}

	if err := p.publish(ctx, log, asset.ID, fields); err != nil {
		// The files are in place but the row could not be updated. Leave it
		// in processing for the recovery sweep rather than fabricating a
		// failed state that might be wrong.
		return nil, err
	}

	asset.Status = models.StatusCompleted
	asset.FilePath = fields.FilePath
	asset.ThumbnailPath = fields.ThumbnailPath
	asset.FileSizeBytes = fields.FileSizeBytes
	asset.DurationSeconds = fields.DurationSeconds
	asset.Resolution = fields.Resolution
	asset.BitrateBPS = fields.BitrateBPS
	asset.Codec = fields.Codec
	asset.Container = fields.Container
	return asset, nil
}

// needsTranscode is a pure function of the probed facts against the
// canonical delivery format.
func needsTranscode(source *ffmpeg.ProbeResult, canonical CanonicalFormat) bool {
	if !source.HasContainer(canonical.Container) {
		return true
	}
	if source.VideoCodec != canonical.VideoCodec {
		return true
	}
	if source.BitrateBPS > canonical.VideoBitrateCeiling {
		return true
	}
	if source.Resolution != canonical.Resolution {
		return true
	}
	return false
}

func (p *MediaPipeline) transcode(ctx context.Context, id, inputPath, outputPath string, source *ffmpeg.ProbeResult) error {
	if p.cfg.TranscodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.TranscodeTimeout)
		defer cancel()
	}

	opts := ffmpeg.Options{
		VideoCodec:      ffmpeg.EncoderFor(p.cfg.Canonical.VideoCodec),
		AudioCodec:      p.cfg.Canonical.AudioCodec,
		VideoBitrateBPS: p.cfg.Canonical.VideoBitrateCeiling,
		AudioBitrateBPS: p.cfg.Canonical.AudioBitrate,
		Resolution:      p.cfg.Canonical.Resolution,
		Container:       p.cfg.Canonical.Container,
		Preset:          p.cfg.Canonical.Preset,
		DurationSeconds: source.DurationSeconds,
		OnProgress: func(fraction float64) {
			p.notify(models.PipelineUploadProgress, id, map[string]any{"progress": fraction})
		},
	}

	return p.transcoder.Transcode(ctx, inputPath, outputPath, opts)
}

func (p *MediaPipeline) publish(ctx context.Context, log zerolog.Logger, id string, fields *database.PublishedFields) error {
	var err error
	for attempt := 1; attempt <= p.cfg.PublishRetries; attempt++ {
		err = p.store.UpdateMediaStatus(ctx, id, models.StatusCompleted, fields)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("publish write failed")

		if attempt == p.cfg.PublishRetries {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	return err
}

// markFailed records the terminal failed status. It runs on a detached
// context so a cancelled ingestion can still leave a truthful state behind.
func (p *MediaPipeline) markFailed(log zerolog.Logger, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.store.UpdateMediaStatus(ctx, id, models.StatusFailed, nil); err != nil {
		log.Error().Err(err).Msg("failed to record failed status")
	}
}

// Delete removes the final media file, the thumbnail if present, the catalog
// row and all dependent watch records. Retry-safe: missing files are ignored
// and a missing row reports ErrNotFound.
func (p *MediaPipeline) Delete(ctx context.Context, id string) error {
	asset, err := p.store.GetMediaByID(ctx, id)
	if err != nil {
		return err
	}

	if asset.FilePath != "" {
		if err := os.Remove(asset.FilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove media file: %w", err)
		}
	}
	if asset.ThumbnailPath != "" {
		if err := os.Remove(asset.ThumbnailPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove thumbnail: %w", err)
		}
	}

	return p.store.DeleteMedia(ctx, id)
}

func (p *MediaPipeline) notify(eventType models.PipelineEventType, id string, data map[string]any) {
	if p.notifier == nil {
		return
	}
	p.notifier.Publish(models.PipelineEvent{Type: eventType, AssetID: id, Data: data})
}

func (p *MediaPipeline) removeTemp(log zerolog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("failed to remove temp input")
	}
}

func validateSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &models.ValidationError{Reason: fmt.Sprintf("source file not accessible: %v", err)}
	}
	if info.IsDir() {
		return &models.ValidationError{Reason: "source path is a directory"}
	}
	if info.Size() == 0 {
		return &models.ValidationError{Reason: "source file is empty"}
	}

	f, err := os.Open(path)
	if err != nil {
		return &models.ValidationError{Reason: fmt.Sprintf("source file not readable: %v", err)}
	}
	_ = f.Close()
	return nil
}

// containerName collapses ffprobe's comma separated format list to a single
// stored value, preferring the canonical name when it applies.
func containerName(probe *ffmpeg.ProbeResult, canonical string) string {
	if probe.HasContainer(canonical) {
		return canonical
	}
	if idx := strings.Index(probe.Container, ","); idx > 0 {
		return probe.Container[:idx]
	}
	return probe.Container
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &models.TranscodeError{Reason: "failed to open source", Err: err}
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return &models.TranscodeError{Reason: "failed to create output", Err: err}
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		removeFile(dst)
		return &models.TranscodeError{Reason: "copy failed", Err: err}
	}
	if err := out.Close(); err != nil {
		removeFile(dst)
		return &models.TranscodeError{Reason: "failed to flush output", Err: err}
	}
	return nil
}

func removeFile(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
