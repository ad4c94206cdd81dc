package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/euacreations/streamvault/internal/api"
	"github.com/euacreations/streamvault/internal/config"
	"github.com/euacreations/streamvault/internal/database"
	"github.com/euacreations/streamvault/internal/notifier"
	"github.com/euacreations/streamvault/internal/services"
	"github.com/euacreations/streamvault/pkg/ffmpeg"
	"github.com/rs/zerolog"
)

type Application struct {
	cfg       *config.Config
	log       zerolog.Logger
	repo      *database.Repository
	server    *api.Server
	hub       *notifier.Hub
	nats      *notifier.NATSPublisher
	sweeper   *services.Sweeper
	analytics *services.AnalyticsRecorder

	stopSweep chan struct{}
}

func NewApplication(cfg *config.Config, log zerolog.Logger) (*Application, error) {
	repo, err := database.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	hub := notifier.NewHub(16, log)
	fanout := notifier.Multi{hub}

	var natsPub *notifier.NATSPublisher
	if cfg.NATSURL != "" {
		natsPub, err = notifier.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, log)
		if err != nil {
			// Realtime fan-out is best-effort; the local hub still serves SSE.
			log.Warn().Err(err).Msg("NATS unavailable, continuing with local event hub only")
		} else {
			fanout = append(fanout, natsPub)
		}
	}

	analytics := services.NewAnalyticsRecorder(repo, cfg.AnalyticsEnabled, cfg.AnalyticsRetentionDays, log)

	pipeline, err := services.NewMediaPipeline(
		repo,
		ffmpeg.NewProber(cfg.ProbeTimeout),
		ffmpeg.NewTranscoder(),
		ffmpeg.NewThumbnailer(cfg.ThumbnailTimeout),
		fanout,
		analytics,
		services.PipelineConfig{
			Storage: services.StoragePaths{
				TempDir:      cfg.TempDir,
				MediaDir:     cfg.MediaDir,
				ThumbnailDir: cfg.ThumbnailDir,
			},
			Canonical: services.CanonicalFormat{
				Container:           cfg.CanonicalContainer,
				VideoCodec:          cfg.CanonicalVideoCodec,
				AudioCodec:          cfg.CanonicalAudioCodec,
				Resolution:          cfg.CanonicalResolution,
				VideoBitrateCeiling: cfg.VideoBitrateCeiling,
				AudioBitrate:        cfg.AudioBitrate,
				Preset:              cfg.TranscodePreset,
			},
			TranscodeTimeout: cfg.TranscodeTimeout,
			PublishRetries:   cfg.PublishRetries,
		},
		log,
	)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to initialize media pipeline: %w", err)
	}

	catalog := services.NewCatalogService(repo)
	watches := services.NewWatchTracker(repo, analytics, log)
	sweeper := services.NewSweeper(repo, analytics, cfg.TempDir, cfg.StaleProcessingAfter, log)

	server := api.NewServer(pipeline, catalog, watches, analytics, hub)

	return &Application{
		cfg:       cfg,
		log:       log,
		repo:      repo,
		server:    server,
		hub:       hub,
		nats:      natsPub,
		sweeper:   sweeper,
		analytics: analytics,
		stopSweep: make(chan struct{}),
	}, nil
}

func (a *Application) Start() error {
	go a.startBackgroundServices()

	return a.server.Start(":" + strconv.Itoa(a.cfg.HTTPPort))
}

// startBackgroundServices runs the recovery sweep on a timer. The first pass
// runs immediately so a restart repairs crash leftovers without waiting a
// full interval.
func (a *Application) startBackgroundServices() {
	a.sweeper.Run(context.Background())

	interval := a.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.sweeper.Run(context.Background())
		case <-a.stopSweep:
			return
		}
	}
}

func (a *Application) Stop(ctx context.Context) error {
	a.log.Info().Msg("shutting down")

	close(a.stopSweep)
	a.hub.Close()
	if a.nats != nil {
		a.nats.Close()
	}
	return a.repo.Close()
}
