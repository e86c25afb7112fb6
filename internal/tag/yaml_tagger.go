// engine/internal/tag/yaml_tagger.go
package tag

import (
	"strings"

	"carhunt-engine/internal/config"
	"carhunt-engine/internal/domain"
	"carhunt-engine/internal/source/util"
)

// YAMLTagger labels candidates with the rule sets from config. Feature
// rules match against the listing name; condition rules run only when the
// source did not report a condition, with a heuristic fallback.
type YAMLTagger struct {
	Cfg config.Config
}

func (t YAMLTagger) Tag(c domain.Candidate) []string {
	text := strings.ToLower(c.Name)

	var tags []string

	applyRules := func(rules []config.Rule) {
		for _, r := range rules {
			for _, needle := range r.Any {
				n := strings.ToLower(needle)
				if strings.Contains(text, n) {
					tags = append(tags, r.Tag)
					break
				}
			}
		}
	}

	applyRules(t.Cfg.Tagging.FeatureRules)

	if c.Condition == "" {
		before := len(tags)
		applyRules(t.Cfg.Tagging.ConditionRules)
		if len(tags) == before {
			if cond := util.InferCondition(c.Name); cond != "" {
				tags = append(tags, strings.ToLower(cond))
			}
		}
	} else {
		tags = append(tags, strings.ToLower(c.Condition))
	}

	return uniq(tags)
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, t := range in {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
