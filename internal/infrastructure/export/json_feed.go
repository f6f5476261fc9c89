package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
)

// JSONFeedWriter writes the feed document to a file, replacing it atomically.
type JSONFeedWriter struct {
	path   string
	logger *slog.Logger
}

var _ ports.FeedExporter = (*JSONFeedWriter)(nil)

func NewJSONFeedWriter(path string, logger *slog.Logger) *JSONFeedWriter {
	return &JSONFeedWriter{path: path, logger: logger}
}

func (w *JSONFeedWriter) Export(ctx context.Context, feed domain.Feed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	payload = append(payload, '\n')

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create feed dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".feed-*.json")
	if err != nil {
		return fmt.Errorf("create temp feed: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close feed: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod feed: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace feed: %w", err)
	}

	if w.logger != nil {
		w.logger.Info("feed exported", "path", w.path, "incidents", feed.Summary.TotalIncidents, "countries", feed.Summary.CountriesAffected)
	}
	return nil
}
