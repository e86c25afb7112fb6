// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// TagRulesFile is an optional side file (tags.yml in the data dir) that
// replaces the bundled tagging rules without touching the main config.
type TagRulesFile struct {
	Tagging struct {
		FeatureRules   []Rule `yaml:"feature_rules"`
		ConditionRules []Rule `yaml:"condition_rules"`
	} `yaml:"tagging"`
}

func OverlayTagRules(cfg *Config, rulesPath string) error {
	b, err := os.ReadFile(rulesPath)
	if err != nil {
		// Missing rules file should not kill startup
		return nil
	}

	var tf TagRulesFile
	if err := yaml.Unmarshal(b, &tf); err != nil {
		return err
	}

	if len(tf.Tagging.FeatureRules) > 0 {
		cfg.Tagging.FeatureRules = tf.Tagging.FeatureRules
	}
	if len(tf.Tagging.ConditionRules) > 0 {
		cfg.Tagging.ConditionRules = tf.Tagging.ConditionRules
	}
	return nil
}
