package domain

// Category is one of the fixed crisis categories.
type Category string

const (
	CategoryHumanRights   Category = "Human Rights Violations"
	CategoryPolitical     Category = "Political Conflicts"
	CategoryHumanitarian  Category = "Humanitarian Crises"
	CategoryNatural       Category = "Natural Disasters"
	CategoryHealth        Category = "Health Emergencies"
	CategoryEconomic      Category = "Economic Crises"
	CategoryEnvironmental Category = "Environmental Issues"
)

// Categories lists every category in editorial priority order.
// Classifier ties are broken by position in this slice.
var Categories = []Category{
	CategoryHumanRights,
	CategoryPolitical,
	CategoryHumanitarian,
	CategoryNatural,
	CategoryHealth,
	CategoryEconomic,
	CategoryEnvironmental,
}

// Priority returns the category position in Categories, or len(Categories) if unknown.
func (c Category) Priority() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return len(Categories)
}

// Valid reports whether c is one of the seven categories.
func (c Category) Valid() bool {
	return c.Priority() < len(Categories)
}

// ClassificationMethod records which signal decided the category.
type ClassificationMethod string

const (
	MethodCrisisZone ClassificationMethod = "crisis_zone"
	MethodKeyword    ClassificationMethod = "keyword"
	MethodNone       ClassificationMethod = "none"
)

// ClassificationResult is the classifier verdict for one article.
type ClassificationResult struct {
	Category   Category             `json:"category,omitempty"`
	Confidence float64              `json:"confidence"`
	IsCrisis   bool                 `json:"is_crisis"`
	Scores     map[Category]float64 `json:"scores"`
	Method     ClassificationMethod `json:"method"`
	Zone       string               `json:"zone,omitempty"`
}

// Incident couples an article with its classification and resolved locations.
type Incident struct {
	Article        Article
	Classification ClassificationResult
	Locations      []ResolvedLocation
}
