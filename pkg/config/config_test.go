package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("CACHE_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}
	if cfg.Cache.Backend != CacheBackendFile {
		t.Errorf("Expected cache backend file, got %s", cfg.Cache.Backend)
	}
	if cfg.Fetch.BatchSize != 7 {
		t.Errorf("Expected batch size 7, got %d", cfg.Fetch.BatchSize)
	}
	if cfg.Fetch.MaxAttempts != 6 {
		t.Errorf("Expected max attempts 6, got %d", cfg.Fetch.MaxAttempts)
	}
	if cfg.Fetch.PauseMin != 1200*time.Millisecond || cfg.Fetch.PauseMax != 2800*time.Millisecond {
		t.Errorf("Unexpected pause range %v-%v", cfg.Fetch.PauseMin, cfg.Fetch.PauseMax)
	}
	if cfg.Fetch.BackoffMax != 90*time.Second {
		t.Errorf("Expected backoff cap 90s, got %v", cfg.Fetch.BackoffMax)
	}
	if !cfg.BuildForceRefresh {
		t.Error("Expected scheduled builds to force refresh by default")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("FETCH_BATCH_SIZE", "3")
	t.Setenv("RISK_FREE_ANNUAL", "0.04")
	t.Setenv("OUT_DIR", "/tmp/out")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}
	if cfg.Fetch.BatchSize != 3 {
		t.Errorf("Expected batch size 3, got %d", cfg.Fetch.BatchSize)
	}
	if cfg.RiskFreeAnnual != 0.04 {
		t.Errorf("Expected risk free 0.04, got %v", cfg.RiskFreeAnnual)
	}
	if cfg.Portfolio.OutDir != "/tmp/out" {
		t.Errorf("Expected OutDir /tmp/out, got %s", cfg.Portfolio.OutDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel debug, got %s", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"invalid env", map[string]string{"ENV": "qa"}, true},
		{"unknown cache backend", map[string]string{"CACHE_BACKEND": "s3"}, true},
		{"postgres without url", map[string]string{"CACHE_BACKEND": "postgres", "DATABASE_URL": ""}, true},
		{"postgres with url", map[string]string{"CACHE_BACKEND": "postgres", "DATABASE_URL": "postgres://x"}, false},
		{"redis disabled", map[string]string{"CACHE_BACKEND": "redis", "REDIS_ENABLED": "false"}, true},
		{"redis enabled", map[string]string{"CACHE_BACKEND": "redis", "REDIS_ENABLED": "true"}, false},
		{"zero batch", map[string]string{"FETCH_BATCH_SIZE": "0"}, true},
		{"inverted pause", map[string]string{"FETCH_PAUSE_MIN": "3s", "FETCH_PAUSE_MAX": "1s"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvAsDurationFallback(t *testing.T) {
	t.Setenv("FETCH_BACKOFF_MAX", "not-a-duration")

	if got := getEnvAsDuration("FETCH_BACKOFF_MAX", "90s"); got != 90*time.Second {
		t.Errorf("Expected fallback to 90s, got %v", got)
	}
}
