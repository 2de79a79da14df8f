package ajo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPresets(t *testing.T) {
	prod := ProductionConfig()
	if prod.DefaultTTL != 5*time.Minute || prod.MaxEntries != 1000 {
		t.Errorf("production = ttl %s, %d entries; want 5m, 1000", prod.DefaultTTL, prod.MaxEntries)
	}
	if !prod.StaleWhileRevalidate || !prod.EnableMetrics {
		t.Error("production preset must enable stale serving and metrics")
	}
	if prod.WriteLimit != 100 || prod.WriteWindow != 60*time.Second {
		t.Errorf("production write budget = %d per %s, want 100 per 1m0s", prod.WriteLimit, prod.WriteWindow)
	}
	if prod.Breaker.FailureThreshold != 5 || prod.Breaker.RecoveryTimeout != 60*time.Second {
		t.Errorf("production breaker = %+v, want 5 failures, 60s recovery", prod.Breaker)
	}
	if prod.Retry.MaxRetries != 3 || prod.Retry.InitialDelay != time.Second || prod.Retry.BackoffMultiplier != 2 {
		t.Errorf("production retry = %+v, want 3 attempts, 1s, x2", prod.Retry)
	}

	stag := StagingConfig()
	if stag.DefaultTTL != 2*time.Minute || stag.MaxEntries != 500 {
		t.Errorf("staging = ttl %s, %d entries; want 2m, 500", stag.DefaultTTL, stag.MaxEntries)
	}

	dev := DevelopmentConfig()
	if dev.DefaultTTL != 30*time.Second || dev.MaxEntries != 200 {
		t.Errorf("development = ttl %s, %d entries; want 30s, 200", dev.DefaultTTL, dev.MaxEntries)
	}

	test := TestConfig()
	if test.StaleWhileRevalidate {
		t.Error("test preset must disable stale serving for determinism")
	}
	if test.EnableMetrics {
		t.Error("test preset must not publish metrics")
	}
	if test.DefaultTTL != time.Second {
		t.Errorf("test ttl = %s, want 1s", test.DefaultTTL)
	}
}

func TestPresetConfig(t *testing.T) {
	for _, env := range []string{"development", "staging", "production", "test"} {
		if _, err := PresetConfig(env); err != nil {
			t.Errorf("PresetConfig(%q) error = %v", env, err)
		}
	}

	_, err := PresetConfig("qa")
	if err == nil {
		t.Fatal("PresetConfig(qa) error = nil, want unknown environment")
	}
	if !strings.Contains(err.Error(), "qa") {
		t.Errorf("error = %v, want mention of the bad name", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ajo.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
environment: staging
default_ttl: 45s
max_entries: 250
stale_while_revalidate: false
write_limit: 20
breaker:
  failure_threshold: 3
  recovery_timeout: 10s
retry:
  max_retries: 5
  initial_delay: 200ms
thresholds:
  min_hit_rate: 0.5
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DefaultTTL != 45*time.Second {
		t.Errorf("DefaultTTL = %s, want 45s", cfg.DefaultTTL)
	}
	if cfg.MaxEntries != 250 {
		t.Errorf("MaxEntries = %d, want 250", cfg.MaxEntries)
	}
	if cfg.StaleWhileRevalidate {
		t.Error("StaleWhileRevalidate = true, want overridden to false")
	}
	if cfg.WriteLimit != 20 {
		t.Errorf("WriteLimit = %d, want 20", cfg.WriteLimit)
	}
	if cfg.Breaker.FailureThreshold != 3 || cfg.Breaker.RecoveryTimeout != 10*time.Second {
		t.Errorf("Breaker = %+v, want 3 failures, 10s recovery", cfg.Breaker)
	}
	if cfg.Retry.MaxRetries != 5 || cfg.Retry.InitialDelay != 200*time.Millisecond {
		t.Errorf("Retry = %+v, want 5 attempts at 200ms", cfg.Retry)
	}
	if cfg.Thresholds.MinHitRate != 0.5 {
		t.Errorf("MinHitRate = %v, want 0.5", cfg.Thresholds.MinHitRate)
	}

	// Unset fields keep the staging preset values.
	if cfg.WriteWindow != 60*time.Second {
		t.Errorf("WriteWindow = %s, want the preset 1m0s", cfg.WriteWindow)
	}
	if cfg.Retry.BackoffMultiplier != 2 {
		t.Errorf("BackoffMultiplier = %v, want the preset 2", cfg.Retry.BackoffMultiplier)
	}
}

func TestLoadConfig_DefaultsToProduction(t *testing.T) {
	path := writeConfig(t, "max_entries: 10\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.MaxEntries != 10 {
		t.Errorf("MaxEntries = %d, want 10", cfg.MaxEntries)
	}
	if cfg.DefaultTTL != 5*time.Minute {
		t.Errorf("DefaultTTL = %s, want the production 5m", cfg.DefaultTTL)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad duration", "default_ttl: soon\n"},
		{"bad environment", "environment: qa\n"},
		{"bad yaml", "default_ttl: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("LoadConfig() error = nil, want failure")
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig(missing) error = nil, want failure")
	}
}
