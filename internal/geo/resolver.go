package geo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"CrisisMonitor/internal/cache"
	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/lexicon"
	"CrisisMonitor/internal/ports"
)

// Geocode lookup outcomes reported to the run observer.
const (
	OutcomeZone        = "zone"
	OutcomeCacheHit    = "cache_hit"
	OutcomeCacheMiss   = "cache_negative"
	OutcomeResolved    = "resolved"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
	OutcomeImplausible = "implausible"
)

const DefaultMaxLocations = 10

// Options tunes the resolver.
type Options struct {
	MaxLocations  int
	CacheNegative bool
	Now           func() time.Time
}

// Resolver turns article text into resolved locations: zone table first,
// then the geocode cache, then the geocoder.
type Resolver struct {
	lex       *lexicon.Lexicon
	extractor ports.LocationExtractor
	geocoder  ports.Geocoder
	cache     *cache.GeocodeCache
	observer  ports.RunObserver
	logger    *slog.Logger
	opts      Options
	group     singleflight.Group
}

var _ ports.LocationResolver = (*Resolver)(nil)

// NewResolver wires the collaborators. geocoder, geocodes and observer may be
// nil; without a geocoder only zone aliases resolve.
func NewResolver(
	lex *lexicon.Lexicon,
	extractor ports.LocationExtractor,
	geocoder ports.Geocoder,
	geocodes *cache.GeocodeCache,
	observer ports.RunObserver,
	opts Options,
	logger *slog.Logger,
) *Resolver {
	if opts.MaxLocations <= 0 {
		opts.MaxLocations = DefaultMaxLocations
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if extractor == nil {
		extractor = NewGazetteerExtractor(lex)
	}
	return &Resolver{
		lex:       lex,
		extractor: extractor,
		geocoder:  geocoder,
		cache:     geocodes,
		observer:  observer,
		logger:    logger,
		opts:      opts,
	}
}

// Resolve is safe for concurrent use. Lookups for the same name that overlap
// in time share one geocoder call.
func (r *Resolver) Resolve(ctx context.Context, article domain.Article) []domain.ResolvedLocation {
	spans, err := r.extractor.Extract(article.Text())
	if err != nil {
		r.warn("location extraction failed", "url", article.URL, "error", err)
		return nil
	}

	mentions := Mentions(spans, r.opts.MaxLocations)
	out := make([]domain.ResolvedLocation, 0, len(mentions))
	for _, mention := range mentions {
		if ctx.Err() != nil {
			break
		}
		if loc, ok := r.resolveMention(ctx, mention); ok {
			out = append(out, loc)
		}
	}
	return out
}

// Flush persists pending geocode cache writes.
func (r *Resolver) Flush(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Flush(ctx)
}

func (r *Resolver) resolveMention(ctx context.Context, mention string) (domain.ResolvedLocation, bool) {
	if r.lex != nil {
		if zone, ok := r.lex.LookupZone(mention); ok {
			r.observe(OutcomeZone)
			return zone.Location(mention), true
		}
	}
	if r.geocoder == nil {
		return failed(mention), true
	}

	if r.cache != nil {
		entry, hit, err := r.cache.Get(ctx, mention)
		if err != nil {
			r.warn("geocode cache read failed", "mention", mention, "error", err)
		}
		if hit {
			if !entry.Found {
				r.observe(OutcomeCacheMiss)
				return failed(mention), true
			}
			r.observe(OutcomeCacheHit)
			return r.located(mention, entry.Point)
		}
	}

	v, err, _ := r.group.Do(cache.Key(mention), func() (interface{}, error) {
		return r.lookup(ctx, mention)
	})
	if err != nil {
		return failed(mention), true
	}
	return r.located(mention, v.(domain.GeoPoint))
}

func (r *Resolver) lookup(ctx context.Context, mention string) (domain.GeoPoint, error) {
	point, err := r.geocoder.Geocode(ctx, mention)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.observe(OutcomeNotFound)
		if r.opts.CacheNegative {
			r.store(ctx, mention, cache.GeocodeEntry{Found: false, CachedAt: r.opts.Now()})
		}
		return domain.GeoPoint{}, err
	case err != nil:
		r.observe(OutcomeError)
		r.warn("geocode failed", "mention", mention, "error", err)
		return domain.GeoPoint{}, err
	}

	r.observe(OutcomeResolved)
	if domain.PlausibleCoordinates(point.Latitude, point.Longitude) {
		r.store(ctx, mention, cache.GeocodeEntry{Found: true, Point: point, CachedAt: r.opts.Now()})
	}
	return point, nil
}

func (r *Resolver) located(mention string, point domain.GeoPoint) (domain.ResolvedLocation, bool) {
	if !domain.PlausibleCoordinates(point.Latitude, point.Longitude) {
		r.observe(OutcomeImplausible)
		r.debug("discarding implausible coordinates", "mention", mention, "lat", point.Latitude, "lon", point.Longitude)
		return domain.ResolvedLocation{}, false
	}

	loc := domain.ResolvedLocation{
		RawMention:    mention,
		CanonicalName: point.Name,
		CountryISO2:   point.CountryISO2,
		Country:       point.Country,
		Latitude:      point.Latitude,
		Longitude:     point.Longitude,
		Method:        domain.ResolutionGeocoder,
	}
	if loc.CanonicalName == "" {
		loc.CanonicalName = mention
	}
	if loc.CountryISO2 == "" && point.Country != "" {
		if c, ok := CountryByName(point.Country); ok {
			loc.CountryISO2 = c.ISO2
		}
	}
	if c, ok := CountryByISO2(loc.CountryISO2); ok && loc.Country == "" {
		loc.Country = c.Name
	}
	return loc, true
}

func (r *Resolver) store(ctx context.Context, mention string, entry cache.GeocodeEntry) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Put(ctx, mention, entry); err != nil {
		r.warn("geocode cache write failed", "mention", mention, "error", err)
	}
}

func failed(mention string) domain.ResolvedLocation {
	return domain.ResolvedLocation{RawMention: mention, Method: domain.ResolutionFailed}
}

func (r *Resolver) observe(outcome string) {
	if r.observer != nil {
		r.observer.GeocodeLookup(outcome)
	}
}

func (r *Resolver) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Resolver) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
