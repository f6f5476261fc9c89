package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
	"CrisisMonitor/internal/sources"
)

const (
	defaultResolveWorkers  = 4
	defaultDigestCountries = 5
	topLocationCount       = 5
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources           *sources.Registry
	Fetcher           ports.ArticleFetcher
	Classifier        ports.Classifier
	Resolver          ports.LocationResolver
	Aggregator        ports.Aggregator
	Exporter          ports.FeedExporter
	ClassificationLog ports.ClassificationLog
	Notifier          ports.Notifier
	Observer          ports.RunObserver
	Logger            *slog.Logger
	Clock             func() time.Time
}

// RunParams are the per-run knobs.
type RunParams struct {
	WindowHours     int
	WindowDays      int
	MaxArticles     int
	ResolveWorkers  int
	DigestCountries int
}

// Pipeline runs fetch, classify, resolve, aggregate and export.
type Pipeline struct {
	sources    *sources.Registry
	fetcher    ports.ArticleFetcher
	classifier ports.Classifier
	resolver   ports.LocationResolver
	aggregator ports.Aggregator
	exporter   ports.FeedExporter
	classLog   ports.ClassificationLog
	notifier   ports.Notifier
	observer   ports.RunObserver
	logger     *slog.Logger
	now        func() time.Time
}

type flusher interface {
	Flush(ctx context.Context) error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		sources:    deps.Sources,
		fetcher:    deps.Fetcher,
		classifier: deps.Classifier,
		resolver:   deps.Resolver,
		aggregator: deps.Aggregator,
		exporter:   deps.Exporter,
		classLog:   deps.ClassificationLog,
		notifier:   deps.Notifier,
		observer:   deps.Observer,
		logger:     deps.Logger,
		now:        now,
	}
}

// Run executes one full pass. A run with zero incidents still exports a feed.
// Only fetch and export failures abort the run.
func (p *Pipeline) Run(ctx context.Context, params RunParams) (domain.RunStats, error) {
	started := p.now()
	stats := domain.RunStats{
		RunID:          uuid.NewString(),
		StartedAt:      started,
		CategoryCounts: map[domain.Category]int{},
	}
	logger := p.logger
	if logger != nil {
		logger = logger.With("run_id", stats.RunID)
	}

	var feeds []sources.Source
	if p.sources != nil {
		feeds = p.sources.Sources()
	}
	if len(feeds) == 0 {
		return stats, fmt.Errorf("run: %w", domain.ErrNoSources)
	}

	fetched, err := p.fetcher.Fetch(ctx, feeds, params.WindowHours, params.MaxArticles)
	if err != nil {
		return stats, fmt.Errorf("fetch: %w", err)
	}
	stats.SourcesOK = fetched.Sources.OK
	stats.SourcesFailed = fetched.Sources.Failed
	stats.Fetched = len(fetched.Articles)
	stats.NewSinceLastRun = fetched.New
	info(logger, "articles fetched", "articles", stats.Fetched, "fresh", fetched.Fresh, "from_cache", fetched.FromCache,
		"sources_ok", stats.SourcesOK, "sources_failed", stats.SourcesFailed)

	incidents := make([]domain.Incident, 0, len(fetched.Articles))
	for _, article := range fetched.Articles {
		result := p.classifier.Classify(article)
		stats.Classified++
		if p.classLog != nil {
			if err := p.classLog.Record(ctx, article, result); err != nil {
				warn(logger, "classification log write failed", "url", article.URL, "error", err)
			}
		}
		if !result.IsCrisis {
			continue
		}
		stats.Crisis++
		stats.CategoryCounts[result.Category]++
		incidents = append(incidents, domain.Incident{Article: article, Classification: result})
	}

	p.resolveAll(ctx, incidents, params.ResolveWorkers)
	p.locationStats(&stats, incidents)
	if f, ok := p.resolver.(flusher); ok {
		if err := f.Flush(ctx); err != nil {
			warn(logger, "geocode cache flush failed", "error", err)
		}
	}

	feed := p.aggregator.Aggregate(incidents, params.WindowDays, p.now())
	feed.RunID = stats.RunID
	if err := p.exporter.Export(ctx, feed); err != nil {
		return stats, fmt.Errorf("export feed: %w", err)
	}

	if p.notifier != nil && feed.Summary.TotalIncidents > 0 {
		limit := params.DigestCountries
		if limit <= 0 {
			limit = defaultDigestCountries
		}
		if err := p.notifier.PublishDigest(ctx, buildDigestMessage(feed, limit)); err != nil {
			warn(logger, "digest notification failed", "error", err)
		}
	}

	stats.Duration = p.now().Sub(started)
	if p.observer != nil {
		p.observer.RunCompleted(stats)
	}
	info(logger, "run completed",
		"duration", stats.Duration,
		"classified", stats.Classified,
		"crisis", stats.Crisis,
		"mapped", stats.Mapped,
		"unmapped", stats.Unmapped,
		"geocode_success_rate", fmt.Sprintf("%.2f", stats.GeocodeSuccessRate()),
		"top_locations", strings.Join(stats.TopLocations, ", "),
	)
	return stats, nil
}

// resolveAll fills Locations in place. Each worker writes only its own slot.
func (p *Pipeline) resolveAll(ctx context.Context, incidents []domain.Incident, workers int) {
	if p.resolver == nil || len(incidents) == 0 {
		return
	}
	if workers <= 0 {
		workers = defaultResolveWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range incidents {
		i := i
		g.Go(func() error {
			incidents[i].Locations = p.resolver.Resolve(ctx, incidents[i].Article)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pipeline) locationStats(stats *domain.RunStats, incidents []domain.Incident) {
	mentions := map[string]int{}
	for _, inc := range incidents {
		mapped := false
		for _, loc := range inc.Locations {
			if loc.Method != domain.ResolutionCrisisZone {
				stats.GeocodeAttempts++
				if loc.Method == domain.ResolutionGeocoder {
					stats.GeocodeResolved++
				}
			}
			if loc.Mapped() {
				mapped = true
				name := loc.CanonicalName
				if name == "" {
					name = loc.RawMention
				}
				mentions[name]++
			}
		}
		if mapped {
			stats.Mapped++
		} else {
			stats.Unmapped++
		}
	}

	names := make([]string, 0, len(mentions))
	for name := range mentions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if mentions[names[i]] != mentions[names[j]] {
			return mentions[names[i]] > mentions[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > topLocationCount {
		names = names[:topLocationCount]
	}
	stats.TopLocations = names
}

func buildDigestMessage(feed domain.Feed, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Crisis monitor* %s\n", feed.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "%d incidents in %d countries, %d unmapped\n",
		feed.Summary.TotalIncidents, feed.Summary.CountriesAffected, feed.Summary.UnmappedIncidents)
	if feed.Summary.DeltaPct != nil {
		fmt.Fprintf(&b, "Week over week: %+.1f%%\n", *feed.Summary.DeltaPct)
	}
	b.WriteString("\n")

	for i, c := range feed.ByCountry {
		if i == limit {
			break
		}
		fmt.Fprintf(&b, "- %s: %d (%s)\n", c.Country, c.IncidentCount, c.TopCategory)
		if len(c.Items) > 0 {
			fmt.Fprintf(&b, "  %s\n  %s\n", c.Items[0].Title, c.Items[0].URL)
		}
	}
	return b.String()
}

func info(logger *slog.Logger, msg string, args ...interface{}) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}

func warn(logger *slog.Logger, msg string, args ...interface{}) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}
