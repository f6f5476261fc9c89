package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"CrisisMonitor/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(telegramTokenEnv, "")
	t.Setenv(telegramChatIDEnv, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Classifier.Threshold != 0.3 || cfg.Pipeline.WindowHours != 24 || cfg.Pipeline.WindowDays != 30 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.Geocoder.NegativeCaching() {
		t.Fatalf("negative caching should default on")
	}
	if len(cfg.Sources) == 0 {
		t.Fatalf("default sources missing")
	}
	if cfg.Scheduler.Location() != time.UTC && cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Scheduler.Location())
	}
	if !cfg.Resilience.Executor().BreakerEnabled {
		t.Fatalf("breaker should default on")
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv(telegramTokenEnv, "env-token")

	path := writeConfig(t, `
logging:
  format: json
pipeline:
  windowHours: 48
fetch:
  timeout: 5s
geocoder:
  cacheNegative: false
cache:
  backend: sqlite
  sqlitePath: /tmp/cache.db
resilience:
  breakerEnabled: false
  retryMaxAttempts: 4
sources:
  - name: ReliefWeb
    url: https://reliefweb.int/updates/rss.xml
    tier: ngo_un
    categoryHint: Humanitarian Crises
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Pipeline.WindowHours != 48 || cfg.Pipeline.WindowDays != 30 {
		t.Fatalf("unexpected pipeline %+v", cfg.Pipeline)
	}
	if cfg.Fetch.Timeout != 5*time.Second || cfg.Fetch.Workers != 4 {
		t.Fatalf("unexpected fetch %+v", cfg.Fetch)
	}
	if cfg.Geocoder.NegativeCaching() {
		t.Fatalf("cacheNegative: false must disable negative caching")
	}
	exec := cfg.Resilience.Executor()
	if exec.BreakerEnabled || exec.RetryMaxAttempts != 4 || exec.BreakerMinRequests != 3 {
		t.Fatalf("unexpected resilience %+v", exec)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].CategoryHint != domain.CategoryHumanitarian {
		t.Fatalf("sources must replace the defaults, got %+v", cfg.Sources)
	}
	if cfg.Notifications.Telegram.BotToken != "env-token" {
		t.Fatalf("env override not applied")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
	}{
		{"bad yaml", "pipeline: [", domain.ErrInvalidConfig},
		{"threshold", "classifier:\n  threshold: 1.5\n", domain.ErrInvalidConfig},
		{"backend", "cache:\n  backend: etcd\n", domain.ErrInvalidConfig},
		{"mapbox token", "geocoder:\n  provider: mapbox\n", domain.ErrInvalidConfig},
		{"cron", "scheduler:\n  cronExpression: every day\n", domain.ErrInvalidConfig},
		{"timezone", "scheduler:\n  timezone: Mars/Olympus\n", domain.ErrInvalidConfig},
		{"all disabled", "sources:\n  - name: A\n    url: https://a.org/rss\n    tier: mainstream\n    disabled: true\n", domain.ErrNoSources},
		{"bad source", "sources:\n  - name: A\n    url: not-a-url\n    tier: mainstream\n", domain.ErrInvalidConfig},
	}
	t.Setenv(mapboxTokenEnv, "")
	for _, tc := range cases {
		_, err := Load(writeConfig(t, tc.body))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("missing file: expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	path := writeConfig(t, "pipeline:\n  maxArticles: 42\n")
	t.Setenv(configPathEnv, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.MaxArticles != 42 {
		t.Fatalf("expected config from %s, got maxArticles=%d", configPathEnv, cfg.Pipeline.MaxArticles)
	}
}
