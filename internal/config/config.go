package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // LIFEBAND_DATABASE_URL (optional, empty = in-memory store)
	HTTPAddr    string // LIFEBAND_HTTP_ADDR (default ":8080")
	NATSURL     string // LIFEBAND_NATS_URL (optional, empty = no bus)
	AuthToken   string // LIFEBAND_AUTH_TOKEN (optional, empty = auth disabled)
	Tenant      string // LIFEBAND_TENANT (default "default")

	// Escalation countdown settings shared by monitoring clients.
	EscalateTicks    int           // LIFEBAND_ESCALATE_TICKS (default 15)
	EscalateInterval time.Duration // LIFEBAND_ESCALATE_INTERVAL (default 1s)

	// Archive settings
	ArchiveInterval   time.Duration // LIFEBAND_ARCHIVE_INTERVAL (default 3m; 0 = disabled)
	ArchiveS3Bucket   string        // LIFEBAND_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string        // LIFEBAND_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string        // LIFEBAND_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key      string        // LIFEBAND_ARCHIVE_S3_KEY (default "lifeband/archive.jsonl")
	ArchiveFile       string        // LIFEBAND_ARCHIVE_FILE (enables local file when set)
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:       os.Getenv("LIFEBAND_DATABASE_URL"),
		HTTPAddr:          envOrDefault("LIFEBAND_HTTP_ADDR", ":8080"),
		NATSURL:           os.Getenv("LIFEBAND_NATS_URL"),
		AuthToken:         os.Getenv("LIFEBAND_AUTH_TOKEN"),
		Tenant:            envOrDefault("LIFEBAND_TENANT", "default"),
		ArchiveS3Bucket:   os.Getenv("LIFEBAND_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("LIFEBAND_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("LIFEBAND_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:      envOrDefault("LIFEBAND_ARCHIVE_S3_KEY", "lifeband/archive.jsonl"),
		ArchiveFile:       os.Getenv("LIFEBAND_ARCHIVE_FILE"),
	}

	ticks, err := envInt("LIFEBAND_ESCALATE_TICKS", 15)
	if err != nil {
		return nil, err
	}
	c.EscalateTicks = ticks

	interval, err := envDuration("LIFEBAND_ESCALATE_INTERVAL", time.Second)
	if err != nil {
		return nil, err
	}
	c.EscalateInterval = interval

	archiveInterval, err := envDuration("LIFEBAND_ARCHIVE_INTERVAL", 3*time.Minute)
	if err != nil {
		return nil, err
	}
	c.ArchiveInterval = archiveInterval

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
