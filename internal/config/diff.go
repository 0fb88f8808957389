package config

import (
	"reflect"
	"strings"

	logx "pactnotify/pkg/logx"
)

// SummarizeChange returns the changed top-level sections and safe structured
// fields for logging. Tokens are never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	fields := make([]logx.Field, 0, 8)

	if strings.TrimSpace(oldCfg.Dispatch.BaseURL) != strings.TrimSpace(newCfg.Dispatch.BaseURL) ||
		oldCfg.Dispatch.Token != newCfg.Dispatch.Token {
		changed = append(changed, "dispatch")
		fields = append(fields,
			logx.String("dispatch.base_url", newCfg.Dispatch.BaseURL),
			logx.Bool("dispatch.token_set", newCfg.Dispatch.Token != ""),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		fields = append(fields, logx.String("logging.level", newCfg.Logging.Level))
	}

	if oldCfg.Metrics != newCfg.Metrics {
		changed = append(changed, "metrics")
		fields = append(fields, logx.Bool("metrics.enabled", newCfg.Metrics.Enabled))
	}

	if !reflect.DeepEqual(oldCfg.NATS, newCfg.NATS) {
		changed = append(changed, "nats")
		fields = append(fields, logx.Bool("nats.enabled", newCfg.NATS != nil))
	}

	if !reflect.DeepEqual(oldCfg.Reminders, newCfg.Reminders) || oldCfg.Timezone != newCfg.Timezone {
		changed = append(changed, "reminders")
		fields = append(fields, logx.Int("reminders.count", len(newCfg.Reminders)))
	}

	return changed, fields
}
