package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/infrastructure/scheduler"
	"CrisisMonitor/internal/resilience"
	"CrisisMonitor/internal/sources"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "CRISIS_MONITOR_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	mapboxTokenEnv    = "MAPBOX_TOKEN"
	redisAddrEnv      = "REDIS_ADDR"
	redisPasswordEnv  = "REDIS_PASSWORD"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Geocoder providers.
const (
	GeocoderNominatim = "nominatim"
	GeocoderMapbox    = "mapbox"
	GeocoderChain     = "chain"
	GeocoderNone      = "none"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Geocoder      GeocoderConfig     `yaml:"geocoder"`
	Cache         CacheConfig        `yaml:"cache"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	Export        ExportConfig       `yaml:"export"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Notifications NotificationConfig `yaml:"notifications"`
	Resilience    ResilienceConfig   `yaml:"resilience"`
	Sources       []sources.Source   `yaml:"sources"`
}

// LoggingConfig selects level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PipelineConfig holds the run parameters.
type PipelineConfig struct {
	WindowHours    int  `yaml:"windowHours"`
	WindowDays     int  `yaml:"windowDays"`
	MaxArticles    int  `yaml:"maxArticles"`
	ResolveWorkers int  `yaml:"resolveWorkers"`
	CacheBypass    bool `yaml:"cacheBypass"`
}

// FetchConfig bounds feed fetching.
type FetchConfig struct {
	Workers      int           `yaml:"workers"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxPerSource int           `yaml:"maxPerSource"`
	UserAgent    string        `yaml:"userAgent"`
}

// GeocoderConfig selects the geocoding backend and its politeness limits.
type GeocoderConfig struct {
	Provider               string        `yaml:"provider"`
	NominatimURL           string        `yaml:"nominatimUrl"`
	MapboxURL              string        `yaml:"mapboxUrl"`
	MapboxToken            string        `yaml:"mapboxToken"`
	UserAgent              string        `yaml:"userAgent"`
	Interval               time.Duration `yaml:"interval"`
	Timeout                time.Duration `yaml:"timeout"`
	MaxLocationsPerArticle int           `yaml:"maxLocationsPerArticle"`
	CacheNegative          *bool         `yaml:"cacheNegative"`
	DisableNER             bool          `yaml:"disableNer"`
}

// NegativeCaching defaults to true.
func (g GeocoderConfig) NegativeCaching() bool {
	return g.CacheNegative == nil || *g.CacheNegative
}

// CacheConfig picks where the article and geocode caches live.
type CacheConfig struct {
	Backend       string `yaml:"backend"`
	ArticlePath   string `yaml:"articlePath"`
	GeocodePath   string `yaml:"geocodePath"`
	SQLitePath    string `yaml:"sqlitePath"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`
	RedisPrefix   string `yaml:"redisPrefix"`
}

// ClassifierConfig tunes the rule classifier.
type ClassifierConfig struct {
	Threshold   float64 `yaml:"threshold"`
	Saturation  float64 `yaml:"saturation"`
	HintBonus   float64 `yaml:"hintBonus"`
	LexiconPath string  `yaml:"lexiconPath"`
}

// ExportConfig names the outputs.
type ExportConfig struct {
	OutputPath         string `yaml:"outputPath"`
	ClassificationLog  string `yaml:"classificationLog"`
	MaxItemsPerCountry int    `yaml:"maxItemsPerCountry"`
	TopCategories      int    `yaml:"topCategories"`
}

// SchedulerConfig defines when the pipeline runs in daemon mode.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	RunOnStart     bool           `yaml:"runOnStart"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// MetricsConfig exposes Prometheus metrics over HTTP and/or a textfile.
type MetricsConfig struct {
	ListenAddr   string `yaml:"listenAddr"`
	TextfilePath string `yaml:"textfilePath"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram        TelegramConfig `yaml:"telegram"`
	DigestCountries int            `yaml:"digestCountries"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ResilienceConfig overlays non-zero values on resilience.DefaultConfig.
type ResilienceConfig struct {
	RetryMaxAttempts        int           `yaml:"retryMaxAttempts"`
	RetryInitialBackoff     time.Duration `yaml:"retryInitialBackoff"`
	RetryMaxBackoff         time.Duration `yaml:"retryMaxBackoff"`
	RetryMultiplier         float64       `yaml:"retryMultiplier"`
	BreakerEnabled          *bool         `yaml:"breakerEnabled"`
	BreakerMinRequests      uint32        `yaml:"breakerMinRequests"`
	BreakerFailureRatio     float64       `yaml:"breakerFailureRatio"`
	BreakerOpenTimeout      time.Duration `yaml:"breakerOpenTimeout"`
	BreakerHalfOpenMaxCalls uint32        `yaml:"breakerHalfOpenMaxCalls"`
}

// Executor returns the executor settings.
func (r ResilienceConfig) Executor() resilience.Config {
	out := resilience.DefaultConfig()
	if r.RetryMaxAttempts > 0 {
		out.RetryMaxAttempts = r.RetryMaxAttempts
	}
	if r.RetryInitialBackoff > 0 {
		out.RetryInitialBackoff = r.RetryInitialBackoff
	}
	if r.RetryMaxBackoff > 0 {
		out.RetryMaxBackoff = r.RetryMaxBackoff
	}
	if r.RetryMultiplier > 0 {
		out.RetryMultiplier = r.RetryMultiplier
	}
	if r.BreakerEnabled != nil {
		out.BreakerEnabled = *r.BreakerEnabled
	}
	if r.BreakerMinRequests > 0 {
		out.BreakerMinRequests = r.BreakerMinRequests
	}
	if r.BreakerFailureRatio > 0 {
		out.BreakerFailureRatio = r.BreakerFailureRatio
	}
	if r.BreakerOpenTimeout > 0 {
		out.BreakerOpenTimeout = r.BreakerOpenTimeout
	}
	if r.BreakerHalfOpenMaxCalls > 0 {
		out.BreakerHalfOpenMaxCalls = r.BreakerHalfOpenMaxCalls
	}
	return out
}

// Load reads YAML configuration, applies environment overrides and validates
// the result. An empty path falls back to CRISIS_MONITOR_CONFIG; with neither
// set the defaults are used.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %v: %w", path, err, domain.ErrInvalidConfig)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %v: %w", path, err, domain.ErrInvalidConfig)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format+": %w", append(args, domain.ErrInvalidConfig)...))
	}

	if c.Pipeline.WindowHours <= 0 {
		invalid("pipeline.windowHours must be positive, got %d", c.Pipeline.WindowHours)
	}
	if c.Pipeline.WindowDays < 0 {
		invalid("pipeline.windowDays must not be negative, got %d", c.Pipeline.WindowDays)
	}
	if c.Classifier.Threshold <= 0 || c.Classifier.Threshold > 1 {
		invalid("classifier.threshold must be in (0,1], got %v", c.Classifier.Threshold)
	}
	if c.Classifier.Saturation <= 0 {
		invalid("classifier.saturation must be positive, got %v", c.Classifier.Saturation)
	}
	if c.Classifier.HintBonus < 0 || c.Classifier.HintBonus > 1 {
		invalid("classifier.hintBonus must be in [0,1], got %v", c.Classifier.HintBonus)
	}
	if strings.TrimSpace(c.Export.OutputPath) == "" {
		invalid("export.outputPath is required")
	}

	switch c.Cache.Backend {
	case CacheFile:
		if c.Cache.ArticlePath == "" || c.Cache.GeocodePath == "" {
			invalid("cache.articlePath and cache.geocodePath are required for the file backend")
		}
	case CacheSQLite:
		if c.Cache.SQLitePath == "" {
			invalid("cache.sqlitePath is required for the sqlite backend")
		}
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			invalid("cache.redisAddr is required for the redis backend")
		}
	default:
		invalid("unknown cache backend %q", c.Cache.Backend)
	}

	switch c.Geocoder.Provider {
	case GeocoderNominatim, GeocoderNone:
	case GeocoderMapbox:
		if c.Geocoder.MapboxToken == "" {
			invalid("geocoder.mapboxToken is required for the mapbox provider")
		}
	case GeocoderChain:
	default:
		invalid("unknown geocoder provider %q", c.Geocoder.Provider)
	}

	if c.Scheduler.CronExpression != "" {
		if err := scheduler.ValidateSpec(c.Scheduler.CronExpression); err != nil {
			invalid("scheduler: %v", err)
		}
	}

	if _, err := sources.NewRegistry(c.Sources); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(mapboxTokenEnv); v != "" {
		c.Geocoder.MapboxToken = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Cache.RedisPassword = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("unknown timezone %s: %w", tz, domain.ErrInvalidConfig)
	}
	c.Scheduler.location = loc
	return nil
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Pipeline.WindowHours != 0 {
		base.Pipeline.WindowHours = override.Pipeline.WindowHours
	}
	if override.Pipeline.WindowDays != 0 {
		base.Pipeline.WindowDays = override.Pipeline.WindowDays
	}
	if override.Pipeline.MaxArticles != 0 {
		base.Pipeline.MaxArticles = override.Pipeline.MaxArticles
	}
	if override.Pipeline.ResolveWorkers != 0 {
		base.Pipeline.ResolveWorkers = override.Pipeline.ResolveWorkers
	}
	if override.Pipeline.CacheBypass {
		base.Pipeline.CacheBypass = true
	}

	if override.Fetch.Workers != 0 {
		base.Fetch.Workers = override.Fetch.Workers
	}
	if override.Fetch.Timeout != 0 {
		base.Fetch.Timeout = override.Fetch.Timeout
	}
	if override.Fetch.MaxPerSource != 0 {
		base.Fetch.MaxPerSource = override.Fetch.MaxPerSource
	}
	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}

	if override.Geocoder.Provider != "" {
		base.Geocoder.Provider = strings.ToLower(override.Geocoder.Provider)
	}
	if override.Geocoder.NominatimURL != "" {
		base.Geocoder.NominatimURL = override.Geocoder.NominatimURL
	}
	if override.Geocoder.MapboxURL != "" {
		base.Geocoder.MapboxURL = override.Geocoder.MapboxURL
	}
	if override.Geocoder.MapboxToken != "" {
		base.Geocoder.MapboxToken = override.Geocoder.MapboxToken
	}
	if override.Geocoder.UserAgent != "" {
		base.Geocoder.UserAgent = override.Geocoder.UserAgent
	}
	if override.Geocoder.Interval != 0 {
		base.Geocoder.Interval = override.Geocoder.Interval
	}
	if override.Geocoder.Timeout != 0 {
		base.Geocoder.Timeout = override.Geocoder.Timeout
	}
	if override.Geocoder.MaxLocationsPerArticle != 0 {
		base.Geocoder.MaxLocationsPerArticle = override.Geocoder.MaxLocationsPerArticle
	}
	if override.Geocoder.CacheNegative != nil {
		base.Geocoder.CacheNegative = override.Geocoder.CacheNegative
	}
	if override.Geocoder.DisableNER {
		base.Geocoder.DisableNER = true
	}

	if override.Cache.Backend != "" {
		base.Cache.Backend = strings.ToLower(override.Cache.Backend)
	}
	if override.Cache.ArticlePath != "" {
		base.Cache.ArticlePath = override.Cache.ArticlePath
	}
	if override.Cache.GeocodePath != "" {
		base.Cache.GeocodePath = override.Cache.GeocodePath
	}
	if override.Cache.SQLitePath != "" {
		base.Cache.SQLitePath = override.Cache.SQLitePath
	}
	if override.Cache.RedisAddr != "" {
		base.Cache.RedisAddr = override.Cache.RedisAddr
	}
	if override.Cache.RedisPassword != "" {
		base.Cache.RedisPassword = override.Cache.RedisPassword
	}
	if override.Cache.RedisDB != 0 {
		base.Cache.RedisDB = override.Cache.RedisDB
	}
	if override.Cache.RedisPrefix != "" {
		base.Cache.RedisPrefix = override.Cache.RedisPrefix
	}

	if override.Classifier.Threshold != 0 {
		base.Classifier.Threshold = override.Classifier.Threshold
	}
	if override.Classifier.Saturation != 0 {
		base.Classifier.Saturation = override.Classifier.Saturation
	}
	if override.Classifier.HintBonus != 0 {
		base.Classifier.HintBonus = override.Classifier.HintBonus
	}
	if override.Classifier.LexiconPath != "" {
		base.Classifier.LexiconPath = override.Classifier.LexiconPath
	}

	if override.Export.OutputPath != "" {
		base.Export.OutputPath = override.Export.OutputPath
	}
	if override.Export.ClassificationLog != "" {
		base.Export.ClassificationLog = override.Export.ClassificationLog
	}
	if override.Export.MaxItemsPerCountry != 0 {
		base.Export.MaxItemsPerCountry = override.Export.MaxItemsPerCountry
	}
	if override.Export.TopCategories != 0 {
		base.Export.TopCategories = override.Export.TopCategories
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.RunOnStart {
		base.Scheduler.RunOnStart = true
	}

	if override.Metrics.ListenAddr != "" {
		base.Metrics.ListenAddr = override.Metrics.ListenAddr
	}
	if override.Metrics.TextfilePath != "" {
		base.Metrics.TextfilePath = override.Metrics.TextfilePath
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIBase != "" {
		base.Notifications.Telegram.APIBase = override.Notifications.Telegram.APIBase
	}
	if override.Notifications.DigestCountries != 0 {
		base.Notifications.DigestCountries = override.Notifications.DigestCountries
	}

	base.Resilience = override.Resilience

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Pipeline: PipelineConfig{
			WindowHours:    24,
			WindowDays:     30,
			MaxArticles:    500,
			ResolveWorkers: 4,
		},
		Fetch: FetchConfig{
			Workers:      4,
			Timeout:      15 * time.Second,
			MaxPerSource: 25,
		},
		Geocoder: GeocoderConfig{
			Provider:               GeocoderNominatim,
			Interval:               time.Second,
			Timeout:                10 * time.Second,
			MaxLocationsPerArticle: 10,
		},
		Cache: CacheConfig{
			Backend:     CacheFile,
			ArticlePath: "data/article_cache.json",
			GeocodePath: "data/geocode_cache.json",
			SQLitePath:  "data/cache.db",
			RedisPrefix: "crisis-monitor",
		},
		Classifier: ClassifierConfig{
			Threshold:  0.3,
			Saturation: 2.0,
			HintBonus:  0.1,
		},
		Export: ExportConfig{
			OutputPath:         "data/feed.json",
			MaxItemsPerCountry: 10,
			TopCategories:      5,
		},
		Scheduler:     SchedulerConfig{CronExpression: "0 */6 * * *", Timezone: defaultTimezone, location: tz},
		Notifications: NotificationConfig{DigestCountries: 5},
		Sources:       sources.Defaults(),
	}
}

