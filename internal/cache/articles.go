package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
)

// ArticleCache persists articles keyed by canonical URL.
type ArticleCache struct {
	store  ports.KVStore
	logger *slog.Logger
}

// NewArticleCache wraps a key-value store.
func NewArticleCache(store ports.KVStore, logger *slog.Logger) *ArticleCache {
	return &ArticleCache{store: store, logger: logger}
}

// Load returns every decodable cached article. Corrupt entries are skipped.
func (c *ArticleCache) Load(ctx context.Context) (map[string]domain.Article, error) {
	raw, err := c.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot article cache: %w", err)
	}

	out := make(map[string]domain.Article, len(raw))
	skipped := 0
	for key, value := range raw {
		var article domain.Article
		if err := json.Unmarshal(value, &article); err != nil || article.URL == "" {
			skipped++
			continue
		}
		out[key] = article
	}
	if skipped > 0 && c.logger != nil {
		c.logger.Warn("skipped corrupt article cache entries", "count", skipped)
	}
	return out, nil
}

// Expired lists keys of cached articles published before cutoff, sorted.
func Expired(cached map[string]domain.Article, cutoff time.Time) []string {
	var keys []string
	for key, a := range cached {
		if a.PublishedAt.Before(cutoff) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Save merges articles into the store, removes the drop keys and flushes it.
func (c *ArticleCache) Save(ctx context.Context, articles []domain.Article, drop []string) error {
	if len(articles) == 0 && len(drop) == 0 {
		return nil
	}

	entries := make(map[string][]byte, len(articles))
	for _, a := range articles {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode article %s: %w", a.URL, err)
		}
		entries[a.URL] = payload
	}
	if err := c.store.Merge(ctx, entries); err != nil {
		return fmt.Errorf("merge article cache: %w", err)
	}
	if err := c.store.Delete(ctx, drop...); err != nil {
		return fmt.Errorf("prune article cache: %w", err)
	}
	if err := c.store.Flush(ctx); err != nil {
		return fmt.Errorf("flush article cache: %w", err)
	}
	return nil
}
