package sources

import (
	"fmt"
	"net/url"
	"strings"

	"CrisisMonitor/internal/domain"
)

const (
	KindRSS   = "rss"
	KindGDELT = "gdelt"
)

// Source is one feed endpoint with its trust metadata.
type Source struct {
	Name         string           `yaml:"name"`
	URL          string           `yaml:"url"`
	Kind         string           `yaml:"kind"`
	Tier         domain.TrustTier `yaml:"tier"`
	Weight       float64          `yaml:"weight"`
	CategoryHint domain.Category  `yaml:"categoryHint"`
	Disabled     bool             `yaml:"disabled"`
}

// TrustWeight is the explicit weight, or the tier default when unset.
func (s Source) TrustWeight() float64 {
	if s.Weight > 0 {
		return s.Weight
	}
	return s.Tier.DefaultWeight()
}

// ScannerKind defaults empty kinds to RSS.
func (s Source) ScannerKind() string {
	if s.Kind == "" {
		return KindRSS
	}
	return strings.ToLower(s.Kind)
}

// Registry is the immutable, ordered list of configured feeds.
// Order matters: it breaks dedup ties between equal-tier sources.
type Registry struct {
	sources []Source
}

// NewRegistry validates the sources and keeps the enabled ones in order.
func NewRegistry(list []Source) (*Registry, error) {
	enabled := make([]Source, 0, len(list))
	seen := map[string]struct{}{}
	for i, src := range list {
		if src.Disabled {
			continue
		}
		if err := validate(src); err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i, src.Name, err)
		}
		key := strings.ToLower(src.Name)
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("source %s: duplicate name: %w", src.Name, domain.ErrInvalidConfig)
		}
		seen[key] = struct{}{}
		enabled = append(enabled, src)
	}
	if len(enabled) == 0 {
		return nil, domain.ErrNoSources
	}
	return &Registry{sources: enabled}, nil
}

// Sources returns a copy of the enabled sources.
func (r *Registry) Sources() []Source {
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Len is the number of enabled sources.
func (r *Registry) Len() int {
	return len(r.sources)
}

func validate(src Source) error {
	if strings.TrimSpace(src.Name) == "" {
		return fmt.Errorf("missing name: %w", domain.ErrInvalidConfig)
	}
	parsed, err := url.Parse(src.URL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("invalid url %q: %w", src.URL, domain.ErrInvalidConfig)
	}
	if !src.Tier.Valid() {
		return fmt.Errorf("unknown tier %q: %w", src.Tier, domain.ErrInvalidConfig)
	}
	switch src.ScannerKind() {
	case KindRSS, KindGDELT:
	default:
		return fmt.Errorf("unknown kind %q: %w", src.Kind, domain.ErrInvalidConfig)
	}
	if src.Weight < 0 || src.Weight > 1 {
		return fmt.Errorf("weight %.2f outside (0,1]: %w", src.Weight, domain.ErrInvalidConfig)
	}
	if src.CategoryHint != "" && !src.CategoryHint.Valid() {
		return fmt.Errorf("unknown category hint %q: %w", src.CategoryHint, domain.ErrInvalidConfig)
	}
	return nil
}

var (
	ngoMarkers = []string{
		"human rights watch", "hrw.org", "amnesty", "reliefweb", "msf", "icrc",
		"doctors without borders", "oxfam", "save the children",
		"international rescue committee", "care international", "crisis group",
	}
	unMarkers = []string{
		"united nations", "un ocha", "unhcr", "unicef", "wfp", "undp", "unrwa", "who.int",
	}
)

// ClassifySourceType maps a free-form source name to ngo, un or media.
// It is used for sources outside the registry such as GDELT domains.
func ClassifySourceType(name string) string {
	lower := strings.ToLower(name)
	for _, m := range ngoMarkers {
		if strings.Contains(lower, m) {
			return "ngo"
		}
	}
	for _, m := range unMarkers {
		if strings.Contains(lower, m) {
			return "un"
		}
	}
	if lower == "un" || strings.HasPrefix(lower, "un ") || strings.HasSuffix(lower, ".un.org") || strings.Contains(lower, "news.un.org") {
		return "un"
	}
	return "media"
}

// TierForName infers a trust tier from a free-form source name.
func TierForName(name string) domain.TrustTier {
	switch ClassifySourceType(name) {
	case "ngo", "un":
		return domain.TierNGOUN
	default:
		return domain.TierMainstream
	}
}
