package geo

import (
	"strings"
	"unicode"

	"CrisisMonitor/internal/lexicon"
	"CrisisMonitor/internal/ports"
)

// LabelZone marks spans produced from the crisis-zone alias table.
const LabelZone = "ZONE"

var noiseWords = map[string]struct{}{
	"today": {}, "yesterday": {}, "tomorrow": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {}, "saturday": {}, "sunday": {},
	"january": {}, "february": {}, "march": {}, "april": {}, "may": {}, "june": {},
	"july": {}, "august": {}, "september": {}, "october": {}, "november": {}, "december": {},
	"am": {}, "pm": {},
	"news": {}, "report": {}, "article": {}, "story": {}, "breaking": {}, "update": {},
}

// CleanSpan trims a raw mention into something worth geocoding. The second
// return value is false when nothing usable is left.
func CleanSpan(raw string) (string, bool) {
	words := strings.Fields(raw)
	if len(words) > 0 && strings.EqualFold(words[0], "the") {
		words = words[1:]
	}

	kept := words[:0]
	for _, w := range words {
		key := strings.ToLower(strings.Trim(w, ".,;:!?\"'()[]"))
		if _, noise := noiseWords[key]; noise {
			continue
		}
		kept = append(kept, w)
	}

	out := strings.Trim(strings.Join(kept, " "), " .,;:!?\"'()[]")
	if len([]rune(out)) < 2 || !strings.ContainsFunc(out, unicode.IsLetter) {
		return "", false
	}
	return out, true
}

// GazetteerExtractor reports crisis-zone aliases mentioned in the text.
type GazetteerExtractor struct {
	lex *lexicon.Lexicon
}

var _ ports.LocationExtractor = (*GazetteerExtractor)(nil)

func NewGazetteerExtractor(lex *lexicon.Lexicon) *GazetteerExtractor {
	return &GazetteerExtractor{lex: lex}
}

func (g *GazetteerExtractor) Extract(text string) ([]ports.Span, error) {
	if g.lex == nil {
		return nil, nil
	}
	aliases := g.lex.AliasesIn(text)
	spans := make([]ports.Span, 0, len(aliases))
	for _, a := range aliases {
		spans = append(spans, ports.Span{Text: a, Label: LabelZone})
	}
	return spans, nil
}

// MultiExtractor runs several extractors and unions their spans in order.
// A failing extractor is skipped as long as another one succeeds.
type MultiExtractor struct {
	extractors []ports.LocationExtractor
}

var _ ports.LocationExtractor = (*MultiExtractor)(nil)

func NewMultiExtractor(extractors ...ports.LocationExtractor) *MultiExtractor {
	m := &MultiExtractor{}
	for _, e := range extractors {
		if e != nil {
			m.extractors = append(m.extractors, e)
		}
	}
	return m
}

func (m *MultiExtractor) Extract(text string) ([]ports.Span, error) {
	var (
		out     []ports.Span
		lastErr error
		okCount int
	)
	seen := map[string]struct{}{}
	for _, e := range m.extractors {
		spans, err := e.Extract(text)
		if err != nil {
			lastErr = err
			continue
		}
		okCount++
		for _, s := range spans {
			key := strings.ToLower(strings.TrimSpace(s.Text))
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
	}
	if okCount == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

// Mentions cleans spans, drops case-insensitive duplicates and keeps at most
// limit of them. limit <= 0 keeps everything.
func Mentions(spans []ports.Span, limit int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range spans {
		clean, ok := CleanSpan(s.Text)
		if !ok {
			continue
		}
		key := strings.ToLower(clean)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, clean)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
