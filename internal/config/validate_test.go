package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	var cfg Config
	cfg.App.Port = 38471
	cfg.Scheduler.DrainSeconds = 30
	cfg.Scheduler.RefreshHour = 6
	cfg.Scheduler.Timezone = "America/Los_Angeles"
	cfg.Sources.ScriptsDir = "scrapers"
	cfg.Sources.CarMax = SourceConfig{Enabled: true, Script: "scrape-carmax.py"}
	cfg.Acquire.Limit = 10
	return cfg
}

func errContaining(t *testing.T, res Validation, substr string) {
	t.Helper()
	for _, e := range res.Errors {
		if strings.Contains(e, substr) {
			return
		}
	}
	t.Fatalf("no error containing %q in %v", substr, res.Errors)
}

func TestValidConfigPasses(t *testing.T) {
	_, res := NormalizeAndValidate(validConfig())
	assert.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.App.Port = 0
	_, res := NormalizeAndValidate(cfg)
	errContaining(t, res, "app.port")

	cfg.App.Port = 70000
	_, res = NormalizeAndValidate(cfg)
	errContaining(t, res, "app.port")
}

func TestSchedulerValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.DrainSeconds = 0
	cfg.Scheduler.RefreshHour = 24
	cfg.Scheduler.RefreshMinute = 60
	cfg.Scheduler.Timezone = "Mars/Olympus_Mons"

	_, res := NormalizeAndValidate(cfg)
	errContaining(t, res, "drain_seconds")
	errContaining(t, res, "refresh_hour")
	errContaining(t, res, "refresh_minute")
	errContaining(t, res, "timezone")
}

func TestLowDrainIntervalWarns(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.DrainSeconds = 2

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "drain_seconds")
}

func TestNoSourcesEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.CarMax.Enabled = false

	_, res := NormalizeAndValidate(cfg)
	errContaining(t, res, "no sources enabled")
}

func TestEmailAloneIsEnough(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.CarMax.Enabled = false
	cfg.Email.Enabled = true
	cfg.Email.IMAPHost = "imap.gmail.com"
	cfg.Email.IMAPPort = 993
	cfg.Email.Username = "hunter@example.com"
	cfg.Email.Mailbox = "INBOX"
	cfg.Email.SearchSubjectAny = []string{"new listings"}

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
}

func TestEnabledSourceNeedsScript(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.TrueCar = SourceConfig{Enabled: true}

	_, res := NormalizeAndValidate(cfg)
	errContaining(t, res, "sources.truecar.script")
}

func TestScriptsDirRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Sources.ScriptsDir = "  "

	_, res := NormalizeAndValidate(cfg)
	errContaining(t, res, "scripts_dir")
}

func TestEmailRequiredFields(t *testing.T) {
	cfg := validConfig()
	cfg.Email.Enabled = true

	_, res := NormalizeAndValidate(cfg)
	errContaining(t, res, "email.imap_host")
	errContaining(t, res, "email.imap_port")
	errContaining(t, res, "email.username")
	errContaining(t, res, "email.mailbox")
}

func TestEmptySubjectListWarns(t *testing.T) {
	cfg := validConfig()
	cfg.Email.Enabled = true
	cfg.Email.IMAPHost = "imap.gmail.com"
	cfg.Email.IMAPPort = 993
	cfg.Email.Username = "hunter@example.com"
	cfg.Email.Mailbox = "INBOX"

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "search_subject_any")
}

func TestSubjectListNormalized(t *testing.T) {
	cfg := validConfig()
	cfg.Email.SearchSubjectAny = []string{" new listings ", "", "New Listings", "price drop"}

	out, _ := NormalizeAndValidate(cfg)
	assert.Equal(t, []string{"new listings", "price drop"}, out.Email.SearchSubjectAny)
}

func TestTagRuleValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Tagging.FeatureRules = []Rule{
		{Tag: "", Any: []string{"diesel"}},
		{Tag: "towing"},
	}
	cfg.Tagging.ConditionRules = []Rule{
		{Tag: "certified", Any: []string{"certified", ""}},
	}

	_, res := NormalizeAndValidate(cfg)
	errContaining(t, res, "feature_rules[0].tag")
	errContaining(t, res, "feature_rules[1].any")
	errContaining(t, res, "condition_rules[0].any[1]")
}

func TestAcquireNonNegative(t *testing.T) {
	cfg := validConfig()
	cfg.Acquire.Limit = -1
	cfg.Acquire.BatchSize = -1
	cfg.Acquire.SourceTimeoutSeconds = -5
	cfg.Acquire.JobTimeoutSeconds = -1

	_, res := NormalizeAndValidate(cfg)
	errContaining(t, res, "acquire.limit")
	errContaining(t, res, "acquire.batch_size")
	errContaining(t, res, "acquire timeouts")
}

func TestJobTimeoutBelowSourceTimeoutWarns(t *testing.T) {
	cfg := validConfig()
	cfg.Acquire.SourceTimeoutSeconds = 90
	cfg.Acquire.JobTimeoutSeconds = 30

	_, res := NormalizeAndValidate(cfg)
	assert.True(t, res.OK())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "job_timeout_seconds")
}
