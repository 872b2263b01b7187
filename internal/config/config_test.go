package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "acs")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "acs")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadMinimal(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.SSLMode != "disable" {
		t.Fatalf("expected local sslmode default disable, got %q", cfg.DB.SSLMode)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected default access TTL, got %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.ExtSource.Enabled {
		t.Fatal("ext source should default to disabled")
	}
	if cfg.ExtSource.DefaultLimit != 10 {
		t.Fatalf("expected default fetch limit 10, got %d", cfg.ExtSource.DefaultLimit)
	}
	if cfg.ExtSource.PollInterval != 30*time.Second {
		t.Fatalf("expected default poll interval 30s, got %v", cfg.ExtSource.PollInterval)
	}
}

func TestLoadCollectsAllErrors(t *testing.T) {
	t.Setenv("APP_ENV", "nope")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("REDIS_PORT", "6379")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"APP_ENV", "DB_HOST", "DB_USER", "DB_NAME", "REDIS_HOST", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestExtSourceRequiresParamsWhenEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("EXTLOG_ENABLED", "true")
	t.Setenv("EXTLOG_HOST", "192.168.0.6")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing ext source params")
	}
	for _, want := range []string{"EXTLOG_DATABASE", "EXTLOG_USER", "EXTLOG_PASSWORD", "EXTLOG_TABLE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s, got: %v", want, err)
		}
	}
}

func TestExtSourceEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("EXTLOG_ENABLED", "1")
	t.Setenv("EXTLOG_HOST", "192.168.0.6")
	t.Setenv("EXTLOG_PORT", "1433")
	t.Setenv("EXTLOG_DATABASE", "xsys")
	t.Setenv("EXTLOG_USER", "sa")
	t.Setenv("EXTLOG_PASSWORD", "secret")
	t.Setenv("EXTLOG_TABLE", "CD_ES")
	t.Setenv("EXTLOG_POLL_INTERVAL", "10s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.ExtSource.Enabled {
		t.Fatal("ext source should be enabled")
	}
	if cfg.ExtSource.PollInterval != 10*time.Second {
		t.Fatalf("poll interval: got %v", cfg.ExtSource.PollInterval)
	}
}

func TestBioStarRequiresCredentials(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BIOSTAR_BASE_URL", "https://biostar.local/")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing biostar credentials")
	}
	if !strings.Contains(err.Error(), "BIOSTAR_USERNAME") {
		t.Errorf("error should mention BIOSTAR_USERNAME, got: %v", err)
	}
}

func TestRefreshTTLMustExceedAccessTTL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_ACCESS_TTL", "1h")
	t.Setenv("JWT_REFRESH_TTL", "30m")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when refresh TTL <= access TTL")
	}
}
