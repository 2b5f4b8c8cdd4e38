package config

import (
	"testing"
	"time"
)

// allEnvVars lists every env var read by Load, cleared between tests.
var allEnvVars = []string{
	"LIFEBAND_DATABASE_URL", "LIFEBAND_HTTP_ADDR", "LIFEBAND_NATS_URL",
	"LIFEBAND_AUTH_TOKEN", "LIFEBAND_TENANT",
	"LIFEBAND_ESCALATE_TICKS", "LIFEBAND_ESCALATE_INTERVAL",
	"LIFEBAND_ARCHIVE_INTERVAL", "LIFEBAND_ARCHIVE_S3_BUCKET",
	"LIFEBAND_ARCHIVE_S3_ENDPOINT", "LIFEBAND_ARCHIVE_S3_REGION",
	"LIFEBAND_ARCHIVE_S3_KEY", "LIFEBAND_ARCHIVE_FILE",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearAllEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", c.HTTPAddr)
	}
	if c.Tenant != "default" {
		t.Errorf("Tenant = %q, want default", c.Tenant)
	}
	if c.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty (in-memory)", c.DatabaseURL)
	}
	if c.EscalateTicks != 15 {
		t.Errorf("EscalateTicks = %d, want 15", c.EscalateTicks)
	}
	if c.EscalateInterval != time.Second {
		t.Errorf("EscalateInterval = %v, want 1s", c.EscalateInterval)
	}
	if c.ArchiveInterval != 3*time.Minute {
		t.Errorf("ArchiveInterval = %v, want 3m", c.ArchiveInterval)
	}
	if c.ArchiveS3Region != "us-east-1" {
		t.Errorf("ArchiveS3Region = %q, want us-east-1", c.ArchiveS3Region)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("LIFEBAND_DATABASE_URL", "postgres://db:5432/lifeband")
	t.Setenv("LIFEBAND_HTTP_ADDR", ":3000")
	t.Setenv("LIFEBAND_NATS_URL", "nats://localhost:4222")
	t.Setenv("LIFEBAND_TENANT", "clinic-7")
	t.Setenv("LIFEBAND_ESCALATE_TICKS", "30")
	t.Setenv("LIFEBAND_ESCALATE_INTERVAL", "500ms")
	t.Setenv("LIFEBAND_ARCHIVE_INTERVAL", "0")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DatabaseURL != "postgres://db:5432/lifeband" {
		t.Errorf("DatabaseURL = %q", c.DatabaseURL)
	}
	if c.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr = %q, want :3000", c.HTTPAddr)
	}
	if c.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATSURL = %q", c.NATSURL)
	}
	if c.Tenant != "clinic-7" {
		t.Errorf("Tenant = %q, want clinic-7", c.Tenant)
	}
	if c.EscalateTicks != 30 {
		t.Errorf("EscalateTicks = %d, want 30", c.EscalateTicks)
	}
	if c.EscalateInterval != 500*time.Millisecond {
		t.Errorf("EscalateInterval = %v, want 500ms", c.EscalateInterval)
	}
	if c.ArchiveInterval != 0 {
		t.Errorf("ArchiveInterval = %v, want 0 (disabled)", c.ArchiveInterval)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("LIFEBAND_ESCALATE_INTERVAL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_BadTicks(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("LIFEBAND_ESCALATE_TICKS", "many")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid tick count")
	}
}
