package domain

import "time"

// Feed is the document consumed by the rendering layer.
type Feed struct {
	GeneratedAt time.Time          `json:"generated_at"`
	RunID       string             `json:"run_id,omitempty"`
	WindowDays  int                `json:"window_days"`
	Summary     Summary            `json:"summary"`
	TimeSeries  []TimeSeriesPoint  `json:"time_series"`
	ByCountry   []CountryAggregate `json:"by_country"`
	Sources     []SourceStat       `json:"sources"`
}

// Summary holds feed-level totals. Pointer fields are null when not computable.
type Summary struct {
	TotalIncidents    int             `json:"total_incidents"`
	CountriesAffected int             `json:"countries_affected"`
	UnmappedIncidents int             `json:"unmapped_incidents"`
	HumanRightsShare  float64         `json:"human_rights_share"`
	TopCategories     []CategoryCount `json:"top_categories"`
	SourceMix         SourceMix       `json:"source_mix"`
	Prev7DTotal       *int            `json:"prev_7d_total"`
	DeltaPct          *float64        `json:"delta_pct"`
	RollingAvg30D     *float64        `json:"rolling_avg_30d"`
}

// CategoryCount is one entry of Summary.TopCategories.
type CategoryCount struct {
	Name  Category `json:"name"`
	Count int      `json:"count"`
}

// SourceMix splits incidents between NGO/UN sources and media.
type SourceMix struct {
	NGO   int `json:"ngo"`
	Media int `json:"media"`
}

// TimeSeriesPoint counts crisis articles per category for one UTC day.
type TimeSeriesPoint struct {
	Date       string           `json:"date"`
	Categories map[Category]int `json:"categories"`
}

// Total sums the day across categories.
func (p TimeSeriesPoint) Total() int {
	total := 0
	for _, n := range p.Categories {
		total += n
	}
	return total
}

// CountryAggregate summarises incidents resolved to one country.
type CountryAggregate struct {
	Country       string         `json:"country"`
	ISO2          string         `json:"iso2"`
	Lat           float64        `json:"lat"`
	Lon           float64        `json:"lon"`
	IncidentCount int            `json:"incidents"`
	TopCategory   Category       `json:"top_category"`
	Latest        time.Time      `json:"latest"`
	Items         []IncidentItem `json:"items"`
}

// IncidentItem is the drill-down entry of a country.
type IncidentItem struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	Category  Category  `json:"category"`
	Published time.Time `json:"published"`
}

// SourceStat counts incidents per source.
type SourceStat struct {
	Name  string    `json:"name"`
	Count int       `json:"count"`
	Type  TrustTier `json:"type"`
}
