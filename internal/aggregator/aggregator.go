package aggregator

import (
	"math"
	"sort"
	"time"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/geo"
	"CrisisMonitor/internal/ports"
)

const (
	DefaultMaxItemsPerCountry = 10
	DefaultTopCategories      = 5
	dateLayout                = "2006-01-02"
)

// Options bounds the feed document.
type Options struct {
	MaxItemsPerCountry int
	TopCategories      int
}

// Aggregator folds classified, located incidents into the feed document.
type Aggregator struct {
	opts Options
}

var _ ports.Aggregator = (*Aggregator)(nil)

func New(opts Options) *Aggregator {
	if opts.MaxItemsPerCountry <= 0 {
		opts.MaxItemsPerCountry = DefaultMaxItemsPerCountry
	}
	if opts.TopCategories <= 0 {
		opts.TopCategories = DefaultTopCategories
	}
	return &Aggregator{opts: opts}
}

type countryAcc struct {
	agg        domain.CountryAggregate
	categories map[domain.Category]int
	located    bool
}

// Aggregate builds the feed. Only crisis incidents count; each URL counts once
// overall and at most once per country.
func (a *Aggregator) Aggregate(incidents []domain.Incident, windowDays int, now time.Time) domain.Feed {
	if windowDays < 0 {
		windowDays = 0
	}
	now = now.UTC()
	crisis := crisisOnly(incidents)

	feed := domain.Feed{
		GeneratedAt: now,
		WindowDays:  windowDays,
		TimeSeries:  buildTimeSeries(crisis, windowDays, now),
	}

	var (
		countries    = map[string]*countryAcc{}
		categoryHits = map[domain.Category]int{}
		sourceHits   = map[string]*domain.SourceStat{}
	)
	for _, inc := range crisis {
		cat := inc.Classification.Category
		categoryHits[cat]++

		if inc.Article.SourceTier == domain.TierNGOUN {
			feed.Summary.SourceMix.NGO++
		} else {
			feed.Summary.SourceMix.Media++
		}

		src, ok := sourceHits[inc.Article.SourceName]
		if !ok {
			src = &domain.SourceStat{Name: inc.Article.SourceName, Type: inc.Article.SourceTier}
			sourceHits[inc.Article.SourceName] = src
		}
		src.Count++

		mapped := false
		seen := map[string]struct{}{}
		for _, loc := range inc.Locations {
			if !loc.Mapped() {
				continue
			}
			mapped = true
			if _, dup := seen[loc.CountryISO2]; dup {
				continue
			}
			seen[loc.CountryISO2] = struct{}{}
			addToCountry(countries, loc, inc)
		}
		if !mapped {
			feed.Summary.UnmappedIncidents++
		}
	}

	feed.ByCountry = a.finishCountries(countries)
	feed.Sources = sortedSources(sourceHits)

	total := len(crisis)
	feed.Summary.TotalIncidents = total
	feed.Summary.CountriesAffected = len(feed.ByCountry)
	if total > 0 {
		feed.Summary.HumanRightsShare = round(float64(categoryHits[domain.CategoryHumanRights])/float64(total), 2)
	}
	feed.Summary.TopCategories = topCategories(categoryHits, a.opts.TopCategories)
	feed.Summary.Prev7DTotal, feed.Summary.DeltaPct = weekOverWeek(feed.TimeSeries)
	feed.Summary.RollingAvg30D = rollingAverage(feed.TimeSeries, 30)

	return feed
}

func crisisOnly(incidents []domain.Incident) []domain.Incident {
	seen := make(map[string]struct{}, len(incidents))
	out := make([]domain.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if !inc.Classification.IsCrisis || !inc.Classification.Category.Valid() {
			continue
		}
		if _, dup := seen[inc.Article.URL]; dup {
			continue
		}
		seen[inc.Article.URL] = struct{}{}
		out = append(out, inc)
	}
	return out
}

func addToCountry(countries map[string]*countryAcc, loc domain.ResolvedLocation, inc domain.Incident) {
	acc, ok := countries[loc.CountryISO2]
	if !ok {
		acc = &countryAcc{
			agg:        domain.CountryAggregate{ISO2: loc.CountryISO2, Country: loc.Country},
			categories: map[domain.Category]int{},
		}
		if c, known := geo.CountryByISO2(loc.CountryISO2); known {
			acc.agg.Country = c.Name
			acc.agg.Lat, acc.agg.Lon = c.Lat, c.Lon
			acc.located = true
		}
		if acc.agg.Country == "" {
			acc.agg.Country = loc.CountryISO2
		}
		countries[loc.CountryISO2] = acc
	}
	if !acc.located {
		acc.agg.Lat, acc.agg.Lon = loc.Latitude, loc.Longitude
		acc.located = true
	}

	acc.agg.IncidentCount++
	acc.categories[inc.Classification.Category]++
	if inc.Article.PublishedAt.After(acc.agg.Latest) {
		acc.agg.Latest = inc.Article.PublishedAt
	}
	acc.agg.Items = append(acc.agg.Items, domain.IncidentItem{
		Title:     inc.Article.Title,
		URL:       inc.Article.URL,
		Source:    inc.Article.SourceName,
		Category:  inc.Classification.Category,
		Published: inc.Article.PublishedAt,
	})
}

func (a *Aggregator) finishCountries(countries map[string]*countryAcc) []domain.CountryAggregate {
	out := make([]domain.CountryAggregate, 0, len(countries))
	for _, acc := range countries {
		agg := acc.agg
		agg.TopCategory = modeCategory(acc.categories)
		sort.Slice(agg.Items, func(i, j int) bool {
			if !agg.Items[i].Published.Equal(agg.Items[j].Published) {
				return agg.Items[i].Published.After(agg.Items[j].Published)
			}
			return agg.Items[i].URL < agg.Items[j].URL
		})
		if len(agg.Items) > a.opts.MaxItemsPerCountry {
			agg.Items = agg.Items[:a.opts.MaxItemsPerCountry]
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IncidentCount != out[j].IncidentCount {
			return out[i].IncidentCount > out[j].IncidentCount
		}
		return out[i].ISO2 < out[j].ISO2
	})
	return out
}

// modeCategory breaks ties by category name so the result does not depend on
// map iteration order.
func modeCategory(counts map[domain.Category]int) domain.Category {
	var (
		best  domain.Category
		count int
	)
	for cat, n := range counts {
		if n > count || (n == count && cat < best) {
			best, count = cat, n
		}
	}
	return best
}

func topCategories(counts map[domain.Category]int, limit int) []domain.CategoryCount {
	out := make([]domain.CategoryCount, 0, len(counts))
	for _, cat := range domain.Categories {
		if n := counts[cat]; n > 0 {
			out = append(out, domain.CategoryCount{Name: cat, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortedSources(stats map[string]*domain.SourceStat) []domain.SourceStat {
	out := make([]domain.SourceStat, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// buildTimeSeries emits windowDays+1 UTC day buckets ending today, every
// category present even when zero.
func buildTimeSeries(crisis []domain.Incident, windowDays int, now time.Time) []domain.TimeSeriesPoint {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -windowDays)

	points := make([]domain.TimeSeriesPoint, 0, windowDays+1)
	index := make(map[string]int, windowDays+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		cats := make(map[domain.Category]int, len(domain.Categories))
		for _, c := range domain.Categories {
			cats[c] = 0
		}
		key := day.Format(dateLayout)
		index[key] = len(points)
		points = append(points, domain.TimeSeriesPoint{Date: key, Categories: cats})
	}

	for _, inc := range crisis {
		key := inc.Article.PublishedAt.UTC().Format(dateLayout)
		if i, ok := index[key]; ok {
			points[i].Categories[inc.Classification.Category]++
		}
	}
	return points
}

func weekOverWeek(series []domain.TimeSeriesPoint) (*int, *float64) {
	if len(series) < 14 {
		return nil, nil
	}
	current, prev := 0, 0
	for _, p := range series[len(series)-7:] {
		current += p.Total()
	}
	for _, p := range series[len(series)-14 : len(series)-7] {
		prev += p.Total()
	}
	if prev == 0 {
		return nil, nil
	}
	delta := round(float64(current-prev)/float64(prev)*100, 1)
	return &prev, &delta
}

func rollingAverage(series []domain.TimeSeriesPoint, days int) *float64 {
	if len(series) < days {
		return nil
	}
	total := 0
	for _, p := range series[len(series)-days:] {
		total += p.Total()
	}
	avg := round(float64(total)/float64(days), 1)
	return &avg
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
