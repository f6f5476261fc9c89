package ports

import (
	"context"
	"time"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/sources"
)

// ArticleSource pulls raw articles from every configured feed. Articles come
// back grouped in feed order. Entries without a publish date are stamped with now.
type ArticleSource interface {
	FetchAll(ctx context.Context, feeds []sources.Source, since, now time.Time) ([]domain.Article, domain.SourceReport, error)
}

// ArticleFetcher returns the merged, windowed and deduplicated article set.
type ArticleFetcher interface {
	Fetch(ctx context.Context, feeds []sources.Source, windowHours, maxArticles int) (domain.FetchResult, error)
}

// Classifier decides crisis relevance and category of an article.
type Classifier interface {
	Classify(article domain.Article) domain.ClassificationResult
}

// Span is a location-like mention extracted from text.
type Span struct {
	Text  string
	Label string
}

// LocationExtractor finds location mentions in free text.
type LocationExtractor interface {
	Extract(text string) ([]Span, error)
}

// Geocoder turns a place name into coordinates; domain.ErrNotFound means no match.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (domain.GeoPoint, error)
}

// LocationResolver attaches resolved locations to an article.
type LocationResolver interface {
	Resolve(ctx context.Context, article domain.Article) []domain.ResolvedLocation
}

// KVStore is the persisted key-value abstraction behind both caches.
// Flush persists buffered writes without dropping entries written by others.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Merge(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
	Snapshot(ctx context.Context) (map[string][]byte, error)
	Flush(ctx context.Context) error
	Close() error
}

// Aggregator folds incidents into the feed document.
type Aggregator interface {
	Aggregate(incidents []domain.Incident, windowDays int, now time.Time) domain.Feed
}

// FeedExporter writes the finished feed document.
type FeedExporter interface {
	Export(ctx context.Context, feed domain.Feed) error
}

// ClassificationLog records every classification for triage.
type ClassificationLog interface {
	Record(ctx context.Context, article domain.Article, result domain.ClassificationResult) error
}

// Notifier streams run digests to chat channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// RunObserver receives pipeline measurements.
type RunObserver interface {
	SourceFetched(source string, articles int, elapsed time.Duration, err error)
	GeocodeLookup(outcome string)
	RunCompleted(stats domain.RunStats)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
