// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Rule tags a candidate when any of its terms appears in the listing text.
type Rule struct {
	Tag string   `yaml:"tag"`
	Any []string `yaml:"any"`
}

type SourceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Script  string `yaml:"script"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Scheduler struct {
		DrainSeconds  int    `yaml:"drain_seconds"`
		RefreshHour   int    `yaml:"refresh_hour"`
		RefreshMinute int    `yaml:"refresh_minute"`
		Timezone      string `yaml:"timezone"`
	} `yaml:"scheduler"`

	Sources struct {
		ScriptsDir  string       `yaml:"scripts_dir"`
		Interpreter string       `yaml:"interpreter"`
		CarMax      SourceConfig `yaml:"carmax"`
		AutoTrader  SourceConfig `yaml:"autotrader"`
		KBB         SourceConfig `yaml:"kbb"`
		TrueCar     SourceConfig `yaml:"truecar"`
		CarGurus    SourceConfig `yaml:"cargurus"`
		Agent       SourceConfig `yaml:"agent"`
	} `yaml:"sources"`

	Acquire struct {
		Limit                int `yaml:"limit"`
		BatchSize            int `yaml:"batch_size"`
		SourceTimeoutSeconds int `yaml:"source_timeout_seconds"`
		AgentTimeoutSeconds  int `yaml:"agent_timeout_seconds"`
		JobTimeoutSeconds    int `yaml:"job_timeout_seconds"`
	} `yaml:"acquire"`

	Email struct {
		Enabled          bool     `yaml:"enabled"`
		IMAPHost         string   `yaml:"imap_host"`
		IMAPPort         int      `yaml:"imap_port"`
		Username         string   `yaml:"username"`
		Mailbox          string   `yaml:"mailbox"`
		SearchSubjectAny []string `yaml:"search_subject_any"`
	} `yaml:"email"`

	Tagging struct {
		FeatureRules   []Rule `yaml:"feature_rules"`
		ConditionRules []Rule `yaml:"condition_rules"`
	} `yaml:"tagging"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
