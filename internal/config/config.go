package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port              int
	MediaDir          string
	DataDir           string
	FFprobePath       string
	TMDBAPIKey        string
	RedisAddr         string
	ScanConcurrency   int
	DataWriteInterval int // milliseconds
	RescanSchedule    string
}

func Load() *Config {
	return &Config{
		Port:              envInt("PORT", 8080),
		MediaDir:          env("MEDIA_DIR", "/media"),
		DataDir:           env("DATA_DIR", "/data"),
		FFprobePath:       env("FFPROBE_PATH", "ffprobe"),
		TMDBAPIKey:        env("TMDB_API_KEY", ""),
		RedisAddr:         env("REDIS_ADDR", ""),
		ScanConcurrency:   envInt("SCAN_CONCURRENCY", 8),
		DataWriteInterval: envInt("DATA_WRITE_INTERVAL_MS", 10000),
		RescanSchedule:    env("RESCAN_SCHEDULE", "0 4 * * *"),
	}
}

func (c *Config) QueueEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) MetadataEnabled() bool {
	return c.TMDBAPIKey != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
