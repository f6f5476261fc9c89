package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"CrisisMonitor/internal/cache"
	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
	"CrisisMonitor/internal/sources"
)

// DefaultRetention keeps a month of cached articles.
const DefaultRetention = 30 * 24 * time.Hour

// Fetcher builds the run's article set from live feeds and the article cache.
type Fetcher struct {
	source      ports.ArticleSource
	cache       *cache.ArticleCache
	bypassCache bool
	retention   time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

var _ ports.ArticleFetcher = (*Fetcher)(nil)

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithCache enables the URL to article cache.
func WithCache(c *cache.ArticleCache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithCacheBypass keeps cached articles out of the result. Fresh articles are
// still written to the cache.
func WithCacheBypass(bypass bool) Option {
	return func(f *Fetcher) { f.bypassCache = bypass }
}

// WithRetention sets how long cached articles are kept. Entries published
// before now minus the larger of retention and the fetch window are pruned.
func WithRetention(d time.Duration) Option {
	return func(f *Fetcher) { f.retention = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New builds a fetcher around an article source.
func New(source ports.ArticleSource, logger *slog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:    source,
		logger:    logger,
		retention: DefaultRetention,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns deduplicated articles published in the last windowHours,
// newest first, capped at maxArticles (<= 0 means no cap).
func (f *Fetcher) Fetch(ctx context.Context, feeds []sources.Source, windowHours, maxArticles int) (domain.FetchResult, error) {
	var result domain.FetchResult
	if f.source == nil {
		return result, fmt.Errorf("article source is not configured")
	}

	now := f.now()
	since := now.Add(-time.Duration(windowHours) * time.Hour)

	raw, report, err := f.source.FetchAll(ctx, feeds, since, now)
	if err != nil {
		return result, fmt.Errorf("fetch sources: %w", err)
	}
	result.Sources = report

	order := make(map[string]int, len(feeds))
	for i, feed := range feeds {
		if _, ok := order[feed.Name]; !ok {
			order[feed.Name] = i
		}
	}

	fresh := Dedup(Canonicalize(raw), order)
	result.Fresh = len(fresh)
	merged := fresh

	if f.cache != nil {
		cached, err := f.cache.Load(ctx)
		if err != nil {
			f.warn("article cache unavailable", "error", err)
		}

		retention := f.retention
		if window := time.Duration(windowHours) * time.Hour; window > retention {
			retention = window
		}
		cutoff := now.Add(-retention)

		// A cached copy from a more trusted source keeps its slot.
		stored := make([]domain.Article, 0, len(fresh))
		freshURLs := make(map[string]struct{}, len(fresh))
		for _, a := range fresh {
			freshURLs[a.URL] = struct{}{}
			old, ok := cached[a.URL]
			if !ok {
				result.New++
			}
			if ok && prefer(old, a, order) {
				continue
			}
			if a.PublishedAt.Before(cutoff) {
				continue
			}
			stored = append(stored, a)
		}
		if err := f.cache.Save(ctx, stored, cache.Expired(cached, cutoff)); err != nil {
			f.warn("article cache not saved", "error", err)
		}

		if !f.bypassCache && len(cached) > 0 {
			keys := make([]string, 0, len(cached))
			for key := range cached {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			prior := make([]domain.Article, 0, len(keys))
			for _, key := range keys {
				prior = append(prior, cached[key])
			}
			prior = InWindow(Canonicalize(prior), since, now)
			for _, a := range prior {
				if _, ok := freshURLs[a.URL]; !ok {
					result.FromCache++
				}
			}
			merged = Dedup(append(append([]domain.Article{}, fresh...), prior...), order)
		}
	} else {
		result.New = len(fresh)
	}

	result.Articles = NewestFirst(InWindow(merged, since, now), maxArticles)
	f.debug("fetch complete",
		"fresh", result.Fresh,
		"from_cache", result.FromCache,
		"new", result.New,
		"kept", len(result.Articles),
		"sources_ok", report.OK,
		"sources_failed", report.Failed,
	)
	return result, nil
}

func (f *Fetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *Fetcher) warn(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
