package domain

import "math"

// ResolutionMethod records how a location mention was turned into coordinates.
type ResolutionMethod string

const (
	ResolutionCrisisZone ResolutionMethod = "crisis_zone_override"
	ResolutionGeocoder   ResolutionMethod = "geocoder"
	ResolutionFailed     ResolutionMethod = "failed"
)

// ResolvedLocation is one location mention of an article.
type ResolvedLocation struct {
	RawMention    string           `json:"raw_mention"`
	CanonicalName string           `json:"canonical_name,omitempty"`
	CountryISO2   string           `json:"country_iso2,omitempty"`
	Country       string           `json:"country,omitempty"`
	Latitude      float64          `json:"latitude"`
	Longitude     float64          `json:"longitude"`
	Method        ResolutionMethod `json:"resolution_method"`
}

// Mapped reports whether the location can contribute to a country aggregate.
func (l ResolvedLocation) Mapped() bool {
	return l.Method != ResolutionFailed && l.CountryISO2 != ""
}

// GeoPoint is a geocoder answer.
type GeoPoint struct {
	Name        string  `json:"name"`
	Country     string  `json:"country,omitempty"`
	CountryISO2 string  `json:"country_iso2,omitempty"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
}

// PlausibleCoordinates rejects NaN, out-of-range and null-island coordinates.
func PlausibleCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	if math.Abs(lat) < 0.01 && math.Abs(lon) < 0.01 {
		return false
	}
	return true
}
