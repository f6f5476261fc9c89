package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"CrisisMonitor/internal/aggregator"
	"CrisisMonitor/internal/cache"
	"CrisisMonitor/internal/classifier"
	"CrisisMonitor/internal/config"
	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/fetcher"
	"CrisisMonitor/internal/geo"
	"CrisisMonitor/internal/infrastructure/export"
	"CrisisMonitor/internal/infrastructure/geocode"
	"CrisisMonitor/internal/infrastructure/ner"
	"CrisisMonitor/internal/infrastructure/parser"
	"CrisisMonitor/internal/infrastructure/scheduler"
	"CrisisMonitor/internal/infrastructure/storage"
	"CrisisMonitor/internal/infrastructure/telegram"
	"CrisisMonitor/internal/lexicon"
	"CrisisMonitor/internal/logging"
	"CrisisMonitor/internal/metrics"
	"CrisisMonitor/internal/ports"
	"CrisisMonitor/internal/resilience"
	"CrisisMonitor/internal/scanner"
	"CrisisMonitor/internal/sources"
	"CrisisMonitor/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	metrics  *metrics.PipelineMetrics
	closers  []io.Closer
}

// New builds every adapter named by cfg. Stores are opened eagerly so a bad
// cache backend fails before any feed is fetched.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	lex, err := lexicon.Load(cfg.Classifier.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	registry, err := sources.NewRegistry(cfg.Sources)
	if err != nil {
		return nil, err
	}

	a.metrics = metrics.NewPipelineMetrics()
	observer := &textfileObserver{PipelineMetrics: a.metrics, path: cfg.Metrics.TextfilePath, logger: baseLogger}
	exec := resilience.NewExecutor(cfg.Resilience.Executor(), baseLogger.With("component", "resilience"))
	httpClient := &http.Client{}

	articleStore, geocodeStore, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	scanners := scanner.NewRegistry()
	scanners.Register(parser.NewRSSScanner(httpClient, cfg.Fetch.UserAgent))
	scanners.Register(parser.NewGDELTScanner(httpClient, cfg.Fetch.UserAgent))
	source := parser.NewStrategySource(scanners, exec, observer, parser.StrategyOptions{
		Workers:      cfg.Fetch.Workers,
		Timeout:      cfg.Fetch.Timeout,
		MaxPerSource: cfg.Fetch.MaxPerSource,
	}, baseLogger.With("component", "source"))

	articleFetcher := fetcher.New(source, baseLogger.With("component", "fetcher"),
		fetcher.WithCache(cache.NewArticleCache(articleStore, baseLogger.With("component", "article_cache"))),
		fetcher.WithCacheBypass(cfg.Pipeline.CacheBypass),
		fetcher.WithRetention(time.Duration(cfg.Pipeline.WindowDays)*24*time.Hour),
	)

	var extractor ports.LocationExtractor = geo.NewGazetteerExtractor(lex)
	if !cfg.Geocoder.DisableNER {
		extractor = geo.NewMultiExtractor(extractor, ner.NewProseExtractor())
	}
	resolver := geo.NewResolver(
		lex,
		extractor,
		buildGeocoder(cfg.Geocoder, httpClient, exec),
		cache.NewGeocodeCache(geocodeStore),
		observer,
		geo.Options{
			MaxLocations:  cfg.Geocoder.MaxLocationsPerArticle,
			CacheNegative: cfg.Geocoder.NegativeCaching(),
		},
		baseLogger.With("component", "resolver"),
	)

	deps := usecase.PipelineDeps{
		Sources:  registry,
		Fetcher:  articleFetcher,
		Resolver: resolver,
		Classifier: classifier.New(lex, classifier.Options{
			Threshold:  cfg.Classifier.Threshold,
			Saturation: cfg.Classifier.Saturation,
			HintBonus:  cfg.Classifier.HintBonus,
		}),
		Aggregator: aggregator.New(aggregator.Options{
			MaxItemsPerCountry: cfg.Export.MaxItemsPerCountry,
			TopCategories:      cfg.Export.TopCategories,
		}),
		Exporter: export.NewJSONFeedWriter(cfg.Export.OutputPath, baseLogger.With("component", "export")),
		Observer: observer,
		Logger:   baseLogger.With("component", "pipeline"),
	}
	if cfg.Export.ClassificationLog != "" {
		classLog, err := export.OpenClassificationLog(cfg.Export.ClassificationLog)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, classLog)
		deps.ClassificationLog = classLog
	}
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		deps.Notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID, tg.APIBase)
	}

	a.pipeline = usecase.NewPipeline(deps)
	return a, nil
}

// RunOnce performs a single pipeline pass.
func (a *Application) RunOnce(ctx context.Context) (domain.RunStats, error) {
	return a.pipeline.Run(ctx, a.params())
}

// RunDaemon schedules the pipeline on the configured cron expression and
// serves metrics until ctx is cancelled.
func (a *Application) RunDaemon(ctx context.Context) error {
	cfg := a.cfg.Scheduler
	driver := scheduler.NewCronScheduler(cfg.CronExpression, cfg.Location(), cfg.RunOnStart, a.logger.With("component", "scheduler"))
	sched := usecase.NewScheduler(driver, a.pipeline, a.params(), a.logger.With("component", "scheduler"))

	var server *http.Server
	serverErr := make(chan error, 1)
	if addr := a.cfg.Metrics.ListenAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			a.logger.Info("metrics listener started", "addr", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("daemon started", "cron", cfg.CronExpression, "timezone", cfg.Location().String())

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		runErr = fmt.Errorf("metrics listener: %w", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("metrics listener shutdown", "error", err)
		}
	}
	a.logger.Info("daemon stopped")
	return runErr
}

// Close releases stores and open files. It is safe to call more than once.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) params() usecase.RunParams {
	return usecase.RunParams{
		WindowHours:     a.cfg.Pipeline.WindowHours,
		WindowDays:      a.cfg.Pipeline.WindowDays,
		MaxArticles:     a.cfg.Pipeline.MaxArticles,
		ResolveWorkers:  a.cfg.Pipeline.ResolveWorkers,
		DigestCountries: a.cfg.Notifications.DigestCountries,
	}
}

func (a *Application) openStores(ctx context.Context) (ports.KVStore, ports.KVStore, error) {
	cfg := a.cfg.Cache
	switch cfg.Backend {
	case config.CacheSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db)
		return storage.NewSQLiteStore(db, "articles"), storage.NewSQLiteStore(db, "geocode"), nil
	case config.CacheRedis:
		client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, client)
		return storage.NewRedisStore(client, cfg.RedisPrefix, "articles"), storage.NewRedisStore(client, cfg.RedisPrefix, "geocode"), nil
	default:
		articles, err := storage.OpenFileStore(cfg.ArticlePath, a.logger.With("component", "article_store"))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, articles)
		geocodes, err := storage.OpenFileStore(cfg.GeocodePath, a.logger.With("component", "geocode_store"))
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, geocodes)
		return articles, geocodes, nil
	}
}

// buildGeocoder returns nil for provider "none"; the resolver then maps zone
// aliases only.
func buildGeocoder(cfg config.GeocoderConfig, client *http.Client, exec *resilience.Executor) ports.Geocoder {
	opts := geocode.Options{UserAgent: cfg.UserAgent, Timeout: cfg.Timeout, Interval: cfg.Interval}

	nominatim := func() ports.Geocoder {
		o := opts
		o.BaseURL = cfg.NominatimURL
		return geocode.NewNominatim(client, exec, o)
	}
	mapbox := func() ports.Geocoder {
		o := opts
		o.BaseURL = cfg.MapboxURL
		return geocode.NewMapbox(client, cfg.MapboxToken, exec, o)
	}

	switch cfg.Provider {
	case config.GeocoderNone:
		return nil
	case config.GeocoderMapbox:
		return mapbox()
	case config.GeocoderChain:
		chain := []ports.Geocoder{nominatim()}
		if cfg.MapboxToken != "" {
			chain = append(chain, mapbox())
		}
		return geocode.NewChain(chain...)
	default:
		return nominatim()
	}
}

// textfileObserver rewrites the node_exporter textfile after every run.
type textfileObserver struct {
	*metrics.PipelineMetrics
	path   string
	logger *slog.Logger
}

func (o *textfileObserver) RunCompleted(stats domain.RunStats) {
	o.PipelineMetrics.RunCompleted(stats)
	if o.path == "" {
		return
	}
	if err := o.PipelineMetrics.WriteTextfile(o.path); err != nil {
		o.logger.Warn("metrics textfile write failed", "path", o.path, "error", err)
	}
}
