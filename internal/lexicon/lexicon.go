package lexicon

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"CrisisMonitor/internal/domain"
)

// Zone is a crisis-zone entry: any alias found in text pins the category and,
// for location resolution, the coordinates.
type Zone struct {
	Name       string          `yaml:"name"`
	Aliases    []string        `yaml:"aliases"`
	Category   domain.Category `yaml:"category"`
	Confidence float64         `yaml:"confidence"`
	Country    string          `yaml:"country"`
	ISO2       string          `yaml:"iso2"`
	Lat        float64         `yaml:"lat"`
	Lon        float64         `yaml:"lon"`
}

// Location converts the zone into a resolved location for a mention.
func (z Zone) Location(mention string) domain.ResolvedLocation {
	return domain.ResolvedLocation{
		RawMention:    mention,
		CanonicalName: z.Name,
		CountryISO2:   z.ISO2,
		Country:       z.Country,
		Latitude:      z.Lat,
		Longitude:     z.Lon,
		Method:        domain.ResolutionCrisisZone,
	}
}

type fileFormat struct {
	Keywords map[domain.Category][]string `yaml:"keywords"`
	Zones    []Zone                       `yaml:"zones"`
}

type alias struct {
	norm string
	zone int
}

// Lexicon holds the keyword and zone tables. It is read-only after construction
// and safe for concurrent use.
type Lexicon struct {
	keywords map[domain.Category][]string
	zones    []Zone
	aliases  []alias
}

// New validates the tables and precomputes normalized aliases.
func New(keywords map[domain.Category][]string, zones []Zone) (*Lexicon, error) {
	if err := validate(keywords, zones); err != nil {
		return nil, err
	}

	lex := &Lexicon{
		keywords: make(map[domain.Category][]string, len(keywords)),
		zones:    make([]Zone, len(zones)),
	}
	for cat, terms := range keywords {
		seen := map[string]struct{}{}
		for _, term := range terms {
			norm := Normalize(term)
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			lex.keywords[cat] = append(lex.keywords[cat], norm)
		}
	}
	copy(lex.zones, zones)
	for i, z := range zones {
		for _, a := range z.Aliases {
			lex.aliases = append(lex.aliases, alias{norm: Normalize(a), zone: i})
		}
	}
	return lex, nil
}

// Default returns the built-in tables.
func Default() *Lexicon {
	lex, err := New(DefaultKeywords(), DefaultZones())
	if err != nil {
		panic(fmt.Sprintf("built-in lexicon: %v", err))
	}
	return lex
}

// Load reads a YAML lexicon file. Sections absent from the file keep the
// built-in tables; an empty path returns the defaults.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}

	var file fileFormat
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %v: %w", path, err, domain.ErrInvalidLexicon)
	}

	keywords := DefaultKeywords()
	if len(file.Keywords) > 0 {
		keywords = file.Keywords
	}
	zones := DefaultZones()
	if len(file.Zones) > 0 {
		zones = file.Zones
	}
	return New(keywords, zones)
}

// Terms returns the normalized terms of a category.
func (l *Lexicon) Terms(cat domain.Category) []string {
	return l.keywords[cat]
}

// Zones returns a copy of the zone table.
func (l *Lexicon) Zones() []Zone {
	out := make([]Zone, len(l.zones))
	copy(out, l.zones)
	return out
}

// MatchZone finds the longest zone alias starting at a word boundary in text,
// so "uyghurs" matches "uyghur" and "sudanese" matches "sudan". Equal-length
// aliases resolve to the earlier table entry. It scores whole articles, where
// demonyms should pin the zone; LookupZone maps a single mention and only
// accepts whole-word aliases.
func (l *Lexicon) MatchZone(text string) (Zone, string, bool) {
	norm := Normalize(text)
	if norm == "" {
		return Zone{}, "", false
	}

	padded := " " + norm
	best := -1
	for i, a := range l.aliases {
		if !strings.Contains(padded, " "+a.norm) {
			continue
		}
		if best < 0 || len(a.norm) > len(l.aliases[best].norm) {
			best = i
		}
	}
	if best < 0 {
		return Zone{}, "", false
	}
	return l.zones[l.aliases[best].zone], l.aliases[best].norm, true
}

// LookupZone maps a location mention onto a zone: an exact alias match first,
// then the longest alias contained in the mention as a whole word. Unlike
// MatchZone, "Sudanese" alone does not resolve to Sudan.
func (l *Lexicon) LookupZone(mention string) (Zone, bool) {
	norm := Normalize(mention)
	if norm == "" {
		return Zone{}, false
	}
	for _, a := range l.aliases {
		if a.norm == norm {
			return l.zones[a.zone], true
		}
	}

	padded := " " + norm + " "
	best := -1
	for i, a := range l.aliases {
		if !strings.Contains(padded, " "+a.norm+" ") {
			continue
		}
		if best < 0 || len(a.norm) > len(l.aliases[best].norm) {
			best = i
		}
	}
	if best < 0 {
		return Zone{}, false
	}
	return l.zones[l.aliases[best].zone], true
}

// AliasesIn lists zone aliases present in text, in table order, one per zone.
func (l *Lexicon) AliasesIn(text string) []string {
	padded := " " + Normalize(text) + " "
	var out []string
	seen := map[int]struct{}{}
	for _, a := range l.aliases {
		if _, ok := seen[a.zone]; ok {
			continue
		}
		if strings.Contains(padded, " "+a.norm) {
			seen[a.zone] = struct{}{}
			out = append(out, a.norm)
		}
	}
	return out
}

// Normalize lowercases s, turns punctuation into spaces and collapses runs of
// whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func validate(keywords map[domain.Category][]string, zones []Zone) error {
	if len(keywords) == 0 {
		return fmt.Errorf("no keyword tables: %w", domain.ErrInvalidLexicon)
	}
	for cat, terms := range keywords {
		if !cat.Valid() {
			return fmt.Errorf("unknown category %q: %w", cat, domain.ErrInvalidLexicon)
		}
		if len(terms) == 0 {
			return fmt.Errorf("category %q has no terms: %w", cat, domain.ErrInvalidLexicon)
		}
		for _, term := range terms {
			if Normalize(term) == "" {
				return fmt.Errorf("category %q has a blank term: %w", cat, domain.ErrInvalidLexicon)
			}
		}
	}
	for i, z := range zones {
		if len(z.Aliases) == 0 {
			return fmt.Errorf("zone %d (%s) has no aliases: %w", i, z.Name, domain.ErrInvalidLexicon)
		}
		for _, a := range z.Aliases {
			if Normalize(a) == "" {
				return fmt.Errorf("zone %s has a blank alias: %w", z.Name, domain.ErrInvalidLexicon)
			}
		}
		if !z.Category.Valid() {
			return fmt.Errorf("zone %s: unknown category %q: %w", z.Name, z.Category, domain.ErrInvalidLexicon)
		}
		if z.Confidence <= 0 || z.Confidence > 1 {
			return fmt.Errorf("zone %s: confidence %.2f outside (0,1]: %w", z.Name, z.Confidence, domain.ErrInvalidLexicon)
		}
		if !domain.PlausibleCoordinates(z.Lat, z.Lon) {
			return fmt.Errorf("zone %s: implausible coordinates %.4f,%.4f: %w", z.Name, z.Lat, z.Lon, domain.ErrInvalidLexicon)
		}
		if len(z.ISO2) != 2 {
			return fmt.Errorf("zone %s: iso2 %q: %w", z.Name, z.ISO2, domain.ErrInvalidLexicon)
		}
	}
	return nil
}
