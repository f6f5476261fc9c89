package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
)

type classificationRecord struct {
	Title             string                      `json:"title"`
	URL               string                      `json:"url"`
	Source            string                      `json:"source"`
	PublishedDate     time.Time                   `json:"published_date"`
	PredictedCategory domain.Category             `json:"predicted_category"`
	Confidence        float64                     `json:"confidence"`
	IsCrisis          bool                        `json:"is_crisis"`
	Method            domain.ClassificationMethod `json:"method"`
	AllScores         map[domain.Category]float64 `json:"all_scores"`
}

// ClassificationLog appends one JSON line per classified article.
type ClassificationLog struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

var _ ports.ClassificationLog = (*ClassificationLog)(nil)

// OpenClassificationLog opens path for appending, creating parent directories.
func OpenClassificationLog(path string) (*ClassificationLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open classification log: %w", err)
	}
	return &ClassificationLog{file: f, enc: json.NewEncoder(f)}, nil
}

func (l *ClassificationLog) Record(_ context.Context, article domain.Article, result domain.ClassificationResult) error {
	rec := classificationRecord{
		Title:             article.Title,
		URL:               article.URL,
		Source:            article.SourceName,
		PublishedDate:     article.PublishedAt,
		PredictedCategory: result.Category,
		Confidence:        result.Confidence,
		IsCrisis:          result.IsCrisis,
		Method:            result.Method,
		AllScores:         result.Scores,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.enc.Encode(rec); err != nil {
		return fmt.Errorf("append classification: %w", err)
	}
	return nil
}

func (l *ClassificationLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
