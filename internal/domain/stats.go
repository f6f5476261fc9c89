package domain

import "time"

// RunStats summarises one pipeline execution.
type RunStats struct {
	RunID           string           `json:"run_id"`
	StartedAt       time.Time        `json:"started_at"`
	Duration        time.Duration    `json:"duration"`
	SourcesOK       int              `json:"sources_ok"`
	SourcesFailed   int              `json:"sources_failed"`
	Fetched         int              `json:"fetched"`
	NewSinceLastRun int              `json:"new_since_last_run"`
	Classified      int              `json:"classified"`
	Crisis          int              `json:"crisis"`
	Mapped          int              `json:"mapped"`
	Unmapped        int              `json:"unmapped"`
	GeocodeAttempts int              `json:"geocode_attempts"`
	GeocodeResolved int              `json:"geocode_resolved"`
	CategoryCounts  map[Category]int `json:"category_counts"`
	TopLocations    []string         `json:"top_locations"`
}

// GeocodeSuccessRate is resolved over attempted mentions, or 0 when none were attempted.
func (s RunStats) GeocodeSuccessRate() float64 {
	if s.GeocodeAttempts == 0 {
		return 0
	}
	return float64(s.GeocodeResolved) / float64(s.GeocodeAttempts)
}

// SourceReport tells which feeds answered during a fetch.
type SourceReport struct {
	OK     int
	Failed int
	Errors map[string]string
}

// FetchResult is the fetcher output: the final article set and how it was built.
type FetchResult struct {
	Articles  []Article
	Sources   SourceReport
	Fresh     int
	FromCache int
	New       int
}
