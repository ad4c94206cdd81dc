package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	HTTPPort   int
	DebugMode  bool

	TempDir      string
	MediaDir     string
	ThumbnailDir string

	// Canonical delivery format. All bitrates are bits per second.
	CanonicalContainer  string
	CanonicalVideoCodec string
	CanonicalAudioCodec string
	CanonicalResolution string
	VideoBitrateCeiling int64
	AudioBitrate        int64
	TranscodePreset     string

	ProbeTimeout     time.Duration
	TranscodeTimeout time.Duration
	ThumbnailTimeout time.Duration
	PublishRetries   int

	AnalyticsEnabled       bool
	AnalyticsRetentionDays int

	// Assets stuck in processing longer than this are failed by the sweep.
	StaleProcessingAfter time.Duration
	SweepInterval        time.Duration

	NATSURL     string
	NATSSubject string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvAsInt("DB_PORT", 3306),
		DBUser:     getEnv("DB_USER", "streamvault_user"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "streamvault"),
		HTTPPort:   getEnvAsInt("HTTP_PORT", 8080),
		DebugMode:  getEnvAsBool("DEBUG_MODE", false),

		TempDir:      getEnv("TEMP_STORAGE_PATH", "./storage/temp"),
		MediaDir:     getEnv("MEDIA_STORAGE_PATH", "./storage/media"),
		ThumbnailDir: getEnv("THUMBNAIL_STORAGE_PATH", "./storage/thumbnails"),

		CanonicalContainer:  getEnv("CANONICAL_CONTAINER", "mp4"),
		CanonicalVideoCodec: getEnv("CANONICAL_VIDEO_CODEC", "h264"),
		CanonicalAudioCodec: getEnv("CANONICAL_AUDIO_CODEC", "aac"),
		CanonicalResolution: getEnv("CANONICAL_RESOLUTION", "1920x1080"),
		VideoBitrateCeiling: getEnvAsInt64("VIDEO_BITRATE_CEILING", 2_000_000),
		AudioBitrate:        getEnvAsInt64("AUDIO_BITRATE", 192_000),
		TranscodePreset:     getEnv("TRANSCODE_PRESET", "fast"),

		ProbeTimeout:     getEnvAsDuration("PROBE_TIMEOUT", 30*time.Second),
		TranscodeTimeout: getEnvAsDuration("TRANSCODE_TIMEOUT", 30*time.Minute),
		ThumbnailTimeout: getEnvAsDuration("THUMBNAIL_TIMEOUT", 30*time.Second),
		PublishRetries:   getEnvAsInt("PUBLISH_RETRIES", 3),

		AnalyticsEnabled:       getEnvAsBool("ENABLE_ANALYTICS", true),
		AnalyticsRetentionDays: getEnvAsInt("ANALYTICS_RETENTION_DAYS", 90),

		StaleProcessingAfter: getEnvAsDuration("STALE_PROCESSING_AFTER", time.Hour),
		SweepInterval:        getEnvAsDuration("SWEEP_INTERVAL", time.Hour),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "streamvault.pipeline"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return defaultValue
}
