package classifier

import (
	"math"
	"strings"
	"unicode/utf8"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/lexicon"
	"CrisisMonitor/internal/ports"
)

const (
	DefaultThreshold  = 0.3
	DefaultSaturation = 2.0
	DefaultHintBonus  = 0.1

	// MaxKeywordConfidence caps confidence reached by keyword density alone.
	MaxKeywordConfidence = 0.95

	// Terms shorter than this match only as the exact word ("aid" vs "aids").
	minInflectTermLen = 4
)

// pluralSuffixes are the endings a longer term may carry and still match.
// Verb endings are left out so "storm" does not match "stormed".
var pluralSuffixes = []string{"", "s", "es"}

// Options tunes the scorer.
type Options struct {
	Threshold  float64
	Saturation float64
	HintBonus  float64
}

func (o Options) normalize() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Saturation <= 0 {
		o.Saturation = DefaultSaturation
	}
	if o.HintBonus < 0 {
		o.HintBonus = 0
	}
	return o
}

// RuleClassifier scores articles with source trust, keyword density and the
// crisis-zone table. It never touches the network and is safe for concurrent use.
type RuleClassifier struct {
	lex  *lexicon.Lexicon
	opts Options
}

var _ ports.Classifier = (*RuleClassifier)(nil)

// New builds a classifier over an immutable lexicon.
func New(lex *lexicon.Lexicon, opts Options) *RuleClassifier {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &RuleClassifier{lex: lex, opts: opts.normalize()}
}

// Threshold is the confidence at which an article counts as a crisis.
func (c *RuleClassifier) Threshold() float64 {
	return c.opts.Threshold
}

// Classify returns the verdict for one article.
func (c *RuleClassifier) Classify(article domain.Article) domain.ClassificationResult {
	result := domain.ClassificationResult{
		Scores: make(map[domain.Category]float64, len(domain.Categories)),
		Method: domain.MethodNone,
	}
	for _, cat := range domain.Categories {
		result.Scores[cat] = 0
	}

	text := article.Text()
	if strings.TrimSpace(text) == "" {
		return result
	}

	trust := article.SourceWeight
	if trust <= 0 {
		trust = article.SourceTier.DefaultWeight()
	}

	padded := " " + lexicon.Normalize(text) + " "
	for _, cat := range domain.Categories {
		matched := c.countMatches(padded, cat)
		if matched == 0 {
			continue
		}
		score := (1 - math.Exp(-float64(matched)/c.opts.Saturation)) * trust
		if article.CategoryHint == cat {
			score += c.opts.HintBonus
		}
		result.Scores[cat] = math.Min(score, 1)
	}

	if zone, alias, ok := c.lex.MatchZone(text); ok {
		result.Category = zone.Category
		result.Confidence = math.Max(zone.Confidence, result.Scores[zone.Category])
		result.Method = domain.MethodCrisisZone
		result.Zone = alias
		result.IsCrisis = result.Confidence >= c.opts.Threshold
		return result
	}

	best := domain.Category("")
	for _, cat := range domain.Categories {
		if result.Scores[cat] > 0 && (best == "" || result.Scores[cat] > result.Scores[best]) {
			best = cat
		}
	}
	if best == "" {
		return result
	}

	result.Category = best
	result.Confidence = math.Min(result.Scores[best], MaxKeywordConfidence)
	result.Method = domain.MethodKeyword
	result.IsCrisis = result.Confidence >= c.opts.Threshold
	return result
}

// countMatches counts distinct terms of cat present as whole words.
func (c *RuleClassifier) countMatches(padded string, cat domain.Category) int {
	matched := 0
	for _, term := range c.lex.Terms(cat) {
		if containsTerm(padded, term) {
			matched++
		}
	}
	return matched
}

// containsTerm reports whether term, or its plural when the term is long
// enough, appears as a whole word in the space-padded text.
func containsTerm(padded, term string) bool {
	if utf8.RuneCountInString(term) < minInflectTermLen {
		return strings.Contains(padded, " "+term+" ")
	}
	for _, suffix := range pluralSuffixes {
		if strings.Contains(padded, " "+term+suffix+" ") {
			return true
		}
	}
	return false
}
