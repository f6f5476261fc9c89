package classifier

import (
	"math"
	"reflect"
	"testing"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/lexicon"
)

func newTestClassifier() *RuleClassifier {
	return New(lexicon.Default(), Options{})
}

func TestClassifyXinjiangReport(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()
	res := c.Classify(domain.Article{
		Title:      "UN reports mass arbitrary detentions of Uyghurs in Xinjiang",
		URL:        "https://www.hrw.org/news/1",
		SourceName: "Human Rights Watch",
		SourceTier: domain.TierNGOUN,
	})

	if res.Category != domain.CategoryHumanRights {
		t.Fatalf("expected %s, got %s", domain.CategoryHumanRights, res.Category)
	}
	if res.Confidence < 0.7 {
		t.Fatalf("expected confidence >= 0.7, got %.3f", res.Confidence)
	}
	if !res.IsCrisis {
		t.Fatalf("expected crisis")
	}
	if res.Method != domain.MethodCrisisZone {
		t.Fatalf("expected crisis_zone method, got %s", res.Method)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()
	art := domain.Article{
		Title:      "Cholera outbreak spreads through displacement camps",
		Body:       "Aid groups warn of famine as refugees arrive.",
		SourceTier: domain.TierRegionalIndependent,
	}

	first := c.Classify(art)
	for i := 0; i < 5; i++ {
		if got := c.Classify(art); !reflect.DeepEqual(first, got) {
			t.Fatalf("classification changed between runs: %+v vs %+v", first, got)
		}
	}
}

func TestClassifyEmptyArticle(t *testing.T) {
	t.Parallel()

	res := newTestClassifier().Classify(domain.Article{Title: "   "})
	if res.Confidence != 0 || res.IsCrisis || res.Category != "" {
		t.Fatalf("expected empty verdict, got %+v", res)
	}
	if res.Method != domain.MethodNone {
		t.Fatalf("expected method none, got %s", res.Method)
	}
	if len(res.Scores) != len(domain.Categories) {
		t.Fatalf("scores must carry every category, got %d", len(res.Scores))
	}
}

func TestClassifyKeywordDensity(t *testing.T) {
	t.Parallel()

	res := newTestClassifier().Classify(domain.Article{
		Title:      "Earthquake and tsunami hit coastal towns",
		SourceTier: domain.TierMainstream,
	})

	want := (1 - math.Exp(-1)) * 0.7
	if res.Category != domain.CategoryNatural {
		t.Fatalf("expected natural disaster, got %s", res.Category)
	}
	if math.Abs(res.Confidence-want) > 1e-9 {
		t.Fatalf("expected confidence %.4f, got %.4f", want, res.Confidence)
	}
	if !res.IsCrisis || res.Method != domain.MethodKeyword {
		t.Fatalf("expected keyword crisis, got %+v", res)
	}
}

func TestClassifyMatchesAtWordStartOnly(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()

	res := c.Classify(domain.Article{Title: "Storm warning issued", SourceTier: domain.TierMainstream})
	if res.Scores[domain.CategoryPolitical] != 0 {
		t.Fatalf("short term must not match inside a longer word: %+v", res.Scores)
	}
	if res.IsCrisis {
		t.Fatalf("single weak term should stay below the default threshold, got %.3f", res.Confidence)
	}

	res = c.Classify(domain.Article{Title: "Refugees cross the border", SourceTier: domain.TierMainstream})
	if res.Scores[domain.CategoryHumanitarian] == 0 {
		t.Fatalf("expected plural match of refugee in refugees")
	}

	res = c.Classify(domain.Article{Title: "Flash floods and wildfires", SourceTier: domain.TierMainstream})
	if res.Scores[domain.CategoryNatural] == 0 {
		t.Fatalf("expected plural matches for flood and wildfire")
	}

	for _, title := range []string{
		"Couple celebrates 50th anniversary",
		"Coupon sales soar",
		"Fans stormed the stadium after the final",
		"Local aids awareness walk",
	} {
		res := c.Classify(domain.Article{Title: title, SourceTier: domain.TierNGOUN})
		if res.IsCrisis || res.Method != domain.MethodNone {
			t.Fatalf("%q must not match any term, got %s %.3f via %s", title, res.Category, res.Confidence, res.Method)
		}
	}
}

func TestClassifyRepeatedTermCountsOnce(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()
	once := c.Classify(domain.Article{Title: "Drought", SourceTier: domain.TierNGOUN})
	many := c.Classify(domain.Article{Title: "Drought drought drought drought", SourceTier: domain.TierNGOUN})
	if once.Confidence != many.Confidence {
		t.Fatalf("repetition changed the score: %.3f vs %.3f", once.Confidence, many.Confidence)
	}
}

func TestClassifyTieBreaksByPriority(t *testing.T) {
	t.Parallel()

	res := newTestClassifier().Classify(domain.Article{
		Title:      "Military accused of torture",
		SourceTier: domain.TierMainstream,
	})
	if res.Scores[domain.CategoryHumanRights] != res.Scores[domain.CategoryPolitical] {
		t.Fatalf("expected tied scores, got %+v", res.Scores)
	}
	if res.Category != domain.CategoryHumanRights {
		t.Fatalf("expected priority tie-break to human rights, got %s", res.Category)
	}
}

func TestClassifyZoneOverridesKeywords(t *testing.T) {
	t.Parallel()

	res := newTestClassifier().Classify(domain.Article{
		Title:      "Inflation and unemployment soar in Gaza amid recession",
		SourceTier: domain.TierMainstream,
	})
	if res.Scores[domain.CategoryEconomic] == 0 {
		t.Fatalf("expected economic keyword signal")
	}
	if res.Category != domain.CategoryPolitical || res.Method != domain.MethodCrisisZone {
		t.Fatalf("zone must take precedence, got %s via %s", res.Category, res.Method)
	}
	if res.Zone != "gaza" {
		t.Fatalf("expected gaza alias, got %q", res.Zone)
	}
}

func TestClassifyTrustAndHint(t *testing.T) {
	t.Parallel()

	c := newTestClassifier()
	base := domain.Article{Title: "Reports of torture in detention centres"}

	ngo := base
	ngo.SourceTier = domain.TierNGOUN
	media := base
	media.SourceTier = domain.TierMainstream
	if c.Classify(ngo).Confidence <= c.Classify(media).Confidence {
		t.Fatalf("higher trust must raise confidence")
	}

	hinted := media
	hinted.CategoryHint = domain.CategoryHumanRights
	diff := c.Classify(hinted).Scores[domain.CategoryHumanRights] - c.Classify(media).Scores[domain.CategoryHumanRights]
	if math.Abs(diff-DefaultHintBonus) > 1e-9 {
		t.Fatalf("expected hint bonus %.2f, got %.4f", DefaultHintBonus, diff)
	}

	unmatched := domain.Article{Title: "Reports of torture", SourceTier: domain.TierMainstream, CategoryHint: domain.CategoryHealth}
	if c.Classify(unmatched).Scores[domain.CategoryHealth] != 0 {
		t.Fatalf("hint must not create a score without a matched term")
	}
}

func TestClassifyCapsKeywordConfidence(t *testing.T) {
	t.Parallel()

	c := New(lexicon.Default(), Options{Saturation: 0.01})
	res := c.Classify(domain.Article{
		Title:        "Genocide and torture, persecution and apartheid",
		SourceTier:   domain.TierNGOUN,
		CategoryHint: domain.CategoryHumanRights,
	})
	if res.Confidence != MaxKeywordConfidence {
		t.Fatalf("expected cap %.2f, got %.4f", MaxKeywordConfidence, res.Confidence)
	}
}
