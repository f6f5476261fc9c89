package export

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"CrisisMonitor/internal/domain"
)

func TestJSONFeedWriterCreatesDirsAndReplaces(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "feed.json")
	w := NewJSONFeedWriter(path, nil)

	for _, total := range []int{3, 7} {
		feed := domain.Feed{
			GeneratedAt: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			WindowDays:  30,
			Summary:     domain.Summary{TotalIncidents: total},
			TimeSeries:  []domain.TimeSeriesPoint{},
			ByCountry:   []domain.CountryAggregate{},
			Sources:     []domain.SourceStat{},
		}
		if err := w.Export(context.Background(), feed); err != nil {
			t.Fatalf("Export: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read feed: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("feed is not valid json: %v", err)
	}
	summary := doc["summary"].(map[string]interface{})
	if summary["total_incidents"].(float64) != 7 {
		t.Fatalf("expected the second export to win, got %v", summary["total_incidents"])
	}
	if summary["delta_pct"] != nil {
		t.Fatalf("delta_pct must be null, got %v", summary["delta_pct"])
	}
	if _, ok := doc["by_country"].([]interface{}); !ok {
		t.Fatalf("by_country must be a list")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestClassificationLogAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "classifications.jsonl")
	for i := 0; i < 2; i++ {
		log, err := OpenClassificationLog(path)
		if err != nil {
			t.Fatalf("OpenClassificationLog: %v", err)
		}
		err = log.Record(context.Background(),
			domain.Article{Title: "Flooding in Sindh", URL: "https://x.org/1", SourceName: "ReliefWeb"},
			domain.ClassificationResult{
				Category:   domain.CategoryNatural,
				Confidence: 0.63,
				IsCrisis:   true,
				Method:     domain.MethodKeyword,
				Scores:     map[domain.Category]float64{domain.CategoryNatural: 0.63},
			})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if err := log.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %d is not json: %v", lines, err)
		}
		if rec["predicted_category"] != string(domain.CategoryNatural) || rec["is_crisis"] != true {
			t.Fatalf("unexpected record %v", rec)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines, got %d", lines)
	}
}
