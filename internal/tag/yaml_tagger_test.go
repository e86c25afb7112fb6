package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"carhunt-engine/internal/config"
	"carhunt-engine/internal/domain"
)

func testTagger() YAMLTagger {
	var cfg config.Config
	cfg.Tagging.FeatureRules = []config.Rule{
		{Tag: "diesel", Any: []string{"diesel", "duramax"}},
		{Tag: "leather", Any: []string{"leather", "denali"}},
	}
	cfg.Tagging.ConditionRules = []config.Rule{
		{Tag: "certified", Any: []string{"certified", "cpo"}},
	}
	return YAMLTagger{Cfg: cfg}
}

func TestTagFeatureRules(t *testing.T) {
	tags := testTagger().Tag(domain.Candidate{
		Name:      "2026 GMC Sierra 3500HD Denali Ultimate Duramax",
		Condition: "Used",
	})
	assert.Equal(t, []string{"diesel", "leather", "used"}, tags)
}

func TestTagExplicitConditionWins(t *testing.T) {
	// Condition rules are skipped when the source reported one, even if a
	// rule would have matched the title.
	tags := testTagger().Tag(domain.Candidate{
		Name:      "Certified 2025 Toyota Tacoma",
		Condition: "New",
	})
	assert.Equal(t, []string{"new"}, tags)
}

func TestTagConditionRuleWhenUnreported(t *testing.T) {
	tags := testTagger().Tag(domain.Candidate{Name: "CPO 2025 Toyota Tacoma"})
	assert.Equal(t, []string{"certified"}, tags)
}

func TestTagConditionInferredFallback(t *testing.T) {
	tags := testTagger().Tag(domain.Candidate{Name: "Used 2024 Honda Ridgeline"})
	assert.Equal(t, []string{"used"}, tags)
}

func TestTagNoDuplicates(t *testing.T) {
	// "denali" hits the leather rule once even though it appears twice, and
	// the inferred condition never doubles an explicit one.
	tags := testTagger().Tag(domain.Candidate{
		Name:      "Used GMC Denali leather Denali",
		Condition: "Used",
	})
	assert.Equal(t, []string{"leather", "used"}, tags)
}

func TestTagNothingMatches(t *testing.T) {
	tags := testTagger().Tag(domain.Candidate{Name: "2022 Ford Maverick XLT"})
	assert.Empty(t, tags)
}
