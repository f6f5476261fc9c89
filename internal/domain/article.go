package domain

import "time"

// TrustTier is the coarse reliability ranking of a feed source.
type TrustTier string

const (
	TierNGOUN               TrustTier = "ngo_un"
	TierRegionalIndependent TrustTier = "regional_independent"
	TierMainstream          TrustTier = "mainstream"
)

// Rank orders tiers for dedup tie-breaks; unknown tiers rank below mainstream.
func (t TrustTier) Rank() int {
	switch t {
	case TierNGOUN:
		return 3
	case TierRegionalIndependent:
		return 2
	case TierMainstream:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the tier is one of the known values.
func (t TrustTier) Valid() bool {
	return t.Rank() > 0
}

// DefaultWeight is the trust factor applied when a source has no explicit weight.
func (t TrustTier) DefaultWeight() float64 {
	switch t {
	case TierNGOUN:
		return 1.0
	case TierRegionalIndependent:
		return 0.85
	case TierMainstream:
		return 0.7
	default:
		return 0.5
	}
}

// Article is a canonical feed entry. URL is the deduplication key.
type Article struct {
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	URL          string    `json:"url"`
	SourceName   string    `json:"source_name"`
	SourceTier   TrustTier `json:"source_tier"`
	SourceWeight float64   `json:"source_weight,omitempty"`
	CategoryHint Category  `json:"category_hint,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	DateInferred bool      `json:"date_inferred,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Text joins title and body the way classification and extraction read them.
func (a Article) Text() string {
	switch {
	case a.Title == "":
		return a.Body
	case a.Body == "":
		return a.Title
	default:
		return a.Title + ". " + a.Body
	}
}

// Outranks reports whether a should replace b when both share a URL.
func (a Article) Outranks(b Article) bool {
	return a.SourceTier.Rank() > b.SourceTier.Rank()
}
