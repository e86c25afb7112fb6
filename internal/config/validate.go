package config

import (
	"fmt"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything wrong or
// questionable about it. Callers decide whether warnings are fatal.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Email.SearchSubjectAny = trimList(out.Email.SearchSubjectAny)

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Scheduler.DrainSeconds <= 0 {
		res.addErr("scheduler.drain_seconds must be > 0")
	} else if out.Scheduler.DrainSeconds < 5 {
		res.addWarn("scheduler.drain_seconds is very low (%d); overlapping drains are safe but wasteful.", out.Scheduler.DrainSeconds)
	}
	if out.Scheduler.RefreshHour < 0 || out.Scheduler.RefreshHour > 23 {
		res.addErr("scheduler.refresh_hour must be 0..23")
	}
	if out.Scheduler.RefreshMinute < 0 || out.Scheduler.RefreshMinute > 59 {
		res.addErr("scheduler.refresh_minute must be 0..59")
	}
	if tz := strings.TrimSpace(out.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			res.addErr("scheduler.timezone %q is not a valid IANA zone", tz)
		}
	}

	anyListing := out.Sources.CarMax.Enabled || out.Sources.AutoTrader.Enabled ||
		out.Sources.KBB.Enabled || out.Sources.TrueCar.Enabled || out.Sources.CarGurus.Enabled
	if !anyListing && !out.Sources.Agent.Enabled && !out.Email.Enabled {
		res.addErr("no sources enabled: enable at least one listing site, the agent, or email alerts")
	}
	if anyListing && strings.TrimSpace(out.Sources.ScriptsDir) == "" {
		res.addErr("sources.scripts_dir is required when a listing site is enabled")
	}
	checkScript := func(name string, sc SourceConfig) {
		if sc.Enabled && strings.TrimSpace(sc.Script) == "" {
			res.addErr("sources.%s.script is required when sources.%s.enabled=true", name, name)
		}
	}
	checkScript("carmax", out.Sources.CarMax)
	checkScript("autotrader", out.Sources.AutoTrader)
	checkScript("kbb", out.Sources.KBB)
	checkScript("truecar", out.Sources.TrueCar)
	checkScript("cargurus", out.Sources.CarGurus)
	checkScript("agent", out.Sources.Agent)

	if out.Acquire.Limit < 0 {
		res.addErr("acquire.limit must be >= 0")
	}
	if out.Acquire.BatchSize < 0 {
		res.addErr("acquire.batch_size must be >= 0")
	}
	if out.Acquire.SourceTimeoutSeconds < 0 || out.Acquire.AgentTimeoutSeconds < 0 ||
		out.Acquire.JobTimeoutSeconds < 0 {
		res.addErr("acquire timeouts must be >= 0")
	}
	if jt := out.Acquire.JobTimeoutSeconds; jt > 0 && jt < out.Acquire.SourceTimeoutSeconds {
		res.addWarn("acquire.job_timeout_seconds (%d) is below source_timeout_seconds (%d); sources will be cut short.", jt, out.Acquire.SourceTimeoutSeconds)
	}

	// email required fields if enabled (password lives in the keychain)
	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			res.addErr("email.mailbox is required when email.enabled=true")
		}
		if len(out.Email.SearchSubjectAny) == 0 {
			res.addWarn("email.search_subject_any is empty; alert scanning may find nothing.")
		}
	}

	checkRules := func(name string, rules []Rule) {
		for i, r := range rules {
			if r.Tag == "" {
				res.addErr("%s[%d].tag is required", name, i)
			}
			if len(r.Any) == 0 {
				res.addErr("%s[%d].any must have at least 1 term", name, i)
			}
			for j, term := range r.Any {
				if term == "" {
					res.addErr("%s[%d].any[%d] cannot be empty", name, i, j)
				}
			}
		}
	}
	checkRules("tagging.feature_rules", out.Tagging.FeatureRules)
	checkRules("tagging.condition_rules", out.Tagging.ConditionRules)

	return out, res
}
