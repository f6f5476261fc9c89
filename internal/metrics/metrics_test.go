package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"CrisisMonitor/internal/domain"
)

func scrape(t *testing.T, m *PipelineMetrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read exposition: %v", err)
	}
	return string(body)
}

func TestPipelineMetricsRecordsRun(t *testing.T) {
	t.Parallel()

	m := NewPipelineMetrics()
	m.SourceFetched("BBC World", 12, 300*time.Millisecond, nil)
	m.SourceFetched("BBC World", 0, time.Second, errors.New("timeout"))
	m.GeocodeLookup("resolved")
	m.GeocodeLookup("resolved")
	m.RunCompleted(domain.RunStats{
		StartedAt:       time.Unix(1_700_000_000, 0),
		Duration:        2 * time.Second,
		Fetched:         40,
		Crisis:          9,
		GeocodeAttempts: 4,
		GeocodeResolved: 3,
		CategoryCounts:  map[domain.Category]int{domain.CategoryHumanRights: 5},
	})

	body := scrape(t, m)
	for _, want := range []string{
		`crisis_monitor_fetch_requests_total{source="BBC World",status="error"} 1`,
		`crisis_monitor_fetch_requests_total{source="BBC World",status="success"} 1`,
		`crisis_monitor_geocode_lookups_total{outcome="resolved"} 2`,
		`crisis_monitor_run_geocode_success_ratio 0.75`,
		`crisis_monitor_run_crisis_articles{category="Human Rights Violations"} 5`,
		`crisis_monitor_run_articles{stage="fetched"} 40`,
		`crisis_monitor_run_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q:\n%s", want, body)
		}
	}
}

func TestPipelineMetricsTextfile(t *testing.T) {
	t.Parallel()

	m := NewPipelineMetrics()
	m.GeocodeLookup("zone")

	path := filepath.Join(t.TempDir(), "crisis_monitor.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(raw), `crisis_monitor_geocode_lookups_total{outcome="zone"} 1`) {
		t.Fatalf("textfile missing lookup counter:\n%s", raw)
	}
}
