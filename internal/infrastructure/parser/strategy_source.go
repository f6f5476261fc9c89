package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
	"CrisisMonitor/internal/resilience"
	"CrisisMonitor/internal/scanner"
	"CrisisMonitor/internal/sources"
)

const (
	defaultWorkers      = 4
	defaultFetchTimeout = 15 * time.Second
	defaultMaxPerSource = 25
)

// StrategyOptions bounds the fan-out over feeds.
type StrategyOptions struct {
	Workers      int
	Timeout      time.Duration
	MaxPerSource int
}

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	executor *resilience.Executor
	observer ports.RunObserver
	opts     StrategyOptions
	logger   *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the retry/breaker executor.
func NewStrategySource(reg *scanner.Registry, exec *resilience.Executor, observer ports.RunObserver, opts StrategyOptions, log *slog.Logger) *StrategySource {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultFetchTimeout
	}
	if opts.MaxPerSource <= 0 {
		opts.MaxPerSource = defaultMaxPerSource
	}
	return &StrategySource{
		registry: reg,
		executor: exec,
		observer: observer,
		opts:     opts,
		logger:   log,
	}
}

// FetchAll fetches every feed through a bounded worker pool and waits for all
// of them. A failing feed is logged and skipped. A zero now means the current time.
func (s *StrategySource) FetchAll(ctx context.Context, feeds []sources.Source, since, now time.Time) ([]domain.Article, domain.SourceReport, error) {
	report := domain.SourceReport{Errors: map[string]string{}}
	if s.registry == nil {
		return nil, report, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch all", "sources", len(feeds), "since", since.Format(time.RFC3339))

	perSource := make([][]domain.Article, len(feeds))
	failures := make([]error, len(feeds))
	if now.IsZero() {
		now = time.Now().UTC()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, feed := range feeds {
		i, feed := i, feed
		g.Go(func() error {
			started := time.Now()
			articles, err := s.fetchOne(gctx, feed, since, now)
			if s.observer != nil {
				s.observer.SourceFetched(feed.Name, len(articles), time.Since(started), err)
			}
			if err != nil {
				failures[i] = err
				s.warn("source failed", "source", feed.Name, "url", feed.URL, "error", err)
				return nil
			}
			perSource[i] = articles
			s.debug("source produced articles", "source", feed.Name, "count", len(articles))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, err
	}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	var aggregated []domain.Article
	for i, articles := range perSource {
		if failures[i] != nil {
			report.Failed++
			report.Errors[feeds[i].Name] = failures[i].Error()
			continue
		}
		report.OK++
		aggregated = append(aggregated, articles...)
	}

	s.debug("strategy source done", "total_articles", len(aggregated), "ok", report.OK, "failed", report.Failed)
	return aggregated, report, nil
}

func (s *StrategySource) fetchOne(ctx context.Context, feed sources.Source, since, now time.Time) ([]domain.Article, error) {
	strategy, err := s.registry.Resolve(feed.ScannerKind())
	if err != nil {
		return nil, err
	}

	req := scanner.Request{
		Source:   feed,
		Now:      now,
		Since:    since,
		MaxItems: s.opts.MaxPerSource,
	}

	var results []domain.Article
	scan := func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
		articles, err := strategy.Scan(callCtx, req)
		if err != nil {
			return err
		}
		results = articles
		return nil
	}

	if s.executor == nil {
		err = scan(ctx)
	} else {
		err = s.executor.Execute(ctx, "feed:"+feed.Name, scan, resilience.ClassifyHTTPError)
	}
	if err != nil {
		return nil, fmt.Errorf("scan source %s: %w", feed.Name, err)
	}
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
