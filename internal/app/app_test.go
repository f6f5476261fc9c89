package app

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"CrisisMonitor/internal/config"
	"CrisisMonitor/internal/infrastructure/geocode"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("CRISIS_MONITOR_CONFIG", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dir := t.TempDir()
	cfg.Cache.ArticlePath = filepath.Join(dir, "articles.json")
	cfg.Cache.GeocodePath = filepath.Join(dir, "geocode.json")
	cfg.Cache.SQLitePath = filepath.Join(dir, "cache", "cache.db")
	cfg.Export.OutputPath = filepath.Join(dir, "feed.json")
	cfg.Export.ClassificationLog = filepath.Join(dir, "logs", "classifications.jsonl")
	return cfg
}

func TestNewWiresFileBackend(t *testing.T) {
	cfg := testConfig(t)

	application, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if application.pipeline == nil || application.metrics == nil {
		t.Fatalf("application not fully wired")
	}
	// two file stores plus the classification log
	if len(application.closers) != 3 {
		t.Fatalf("expected 3 closers, got %d", len(application.closers))
	}
	if err := application.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := application.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNewWiresSQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = config.CacheSQLite
	cfg.Export.ClassificationLog = ""

	application, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer application.Close()
	if len(application.closers) != 1 {
		t.Fatalf("expected the shared database as the only closer, got %d", len(application.closers))
	}
}

func TestNewRejectsMissingLexicon(t *testing.T) {
	cfg := testConfig(t)
	cfg.Classifier.LexiconPath = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected lexicon error")
	}
}

func TestBuildGeocoder(t *testing.T) {
	t.Parallel()

	client := &http.Client{}
	cases := []struct {
		provider string
		token    string
		check    func(t *testing.T, got interface{})
	}{
		{config.GeocoderNominatim, "", func(t *testing.T, got interface{}) {
			if _, ok := got.(*geocode.Nominatim); !ok {
				t.Fatalf("expected nominatim, got %T", got)
			}
		}},
		{config.GeocoderMapbox, "tok", func(t *testing.T, got interface{}) {
			if _, ok := got.(*geocode.Mapbox); !ok {
				t.Fatalf("expected mapbox, got %T", got)
			}
		}},
		{config.GeocoderChain, "", func(t *testing.T, got interface{}) {
			if _, ok := got.(*geocode.Chain); !ok {
				t.Fatalf("expected chain, got %T", got)
			}
		}},
		{config.GeocoderNone, "", func(t *testing.T, got interface{}) {
			if got != nil {
				t.Fatalf("expected no geocoder, got %T", got)
			}
		}},
	}
	for _, tc := range cases {
		got := buildGeocoder(config.GeocoderConfig{Provider: tc.provider, MapboxToken: tc.token}, client, nil)
		tc.check(t, got)
	}
}

func TestParamsFollowConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.WindowHours = 12
	cfg.Notifications.DigestCountries = 3

	a := &Application{cfg: cfg}
	params := a.params()
	if params.WindowHours != 12 || params.WindowDays != cfg.Pipeline.WindowDays || params.DigestCountries != 3 {
		t.Fatalf("unexpected params %+v", params)
	}
}
