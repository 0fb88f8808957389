package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Environment overrides, applied after the file is parsed.
const (
	EnvBaseURL  = "NOTIFICATIONS_API_URL"
	EnvToken    = "NOTIFICATIONS_TOKEN"
	EnvLogLevel = "NOTIFYD_LOG_LEVEL"
)

const (
	DefaultMetricsAddr = "127.0.0.1:9464"
	DefaultNATSSubject = "notifications.events"
)

type Config struct {
	Dispatch DispatchConfig `json:"dispatch"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics,omitempty"`
	NATS     *NATSConfig    `json:"nats,omitempty"`

	// Reminders fire task_reminder notifications on a schedule.
	Reminders []ReminderConfig `json:"reminders,omitempty"`
	// Timezone for reminder schedules (IANA name). Defaults to local time.
	Timezone string `json:"timezone,omitempty"`

	// ShutdownTimeout bounds how long the daemon waits for in-flight
	// deliveries on exit. Default: 10s.
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
}

// DispatchConfig points at the notification-ingestion service.
//
// Token is the daemon's own service credential (used by reminders and as the
// relay fallback). It is never logged.
type DispatchConfig struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	JSON    bool        `json:"json,omitempty"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// MetricsConfig controls the optional Prometheus/health listener.
//
// Prefer binding to localhost; the endpoint is unauthenticated.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:9464"
	// Pprof also mounts /debug/pprof/ on the same listener.
	Pprof bool `json:"pprof,omitempty"`
}

// NATSConfig enables the event relay. Omit the section to disable it.
type NATSConfig struct {
	URL     string `json:"url"`
	Subject string `json:"subject,omitempty"` // default: "notifications.events"
	// Queue joins a queue group so several daemons share one subject.
	Queue string `json:"queue,omitempty"`
}

// ReminderConfig describes one scheduled task reminder.
//
// Schedule accepts cron ("0 9 * * *", "@daily"), a Go duration ("30m") or
// HH:MM ("02:30"). Due is RFC3339 or YYYY-MM-DD.
type ReminderConfig struct {
	ID        string `json:"id"`
	Schedule  string `json:"schedule"`
	Recipient string `json:"recipient"`
	TaskID    string `json:"task_id"`
	TaskTitle string `json:"task_title"`
	Due       string `json:"due"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{Logging: LoggingConfig{Level: "info", Console: true}}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Metrics.Addr) == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.NATS != nil && strings.TrimSpace(c.NATS.Subject) == "" {
		c.NATS.Subject = DefaultNATSSubject
	}
}

// ApplyEnv overrides file values with non-empty environment values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv(EnvBaseURL)); v != "" {
		c.Dispatch.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvToken)); v != "" {
		c.Dispatch.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// Validate checks structural problems that would make the daemon misbehave.
// Schedule syntax is checked by the reminder package.
func (c *Config) Validate() error {
	var errs []error

	if raw := strings.TrimSpace(c.Dispatch.BaseURL); raw != "" {
		u, err := url.Parse(raw)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("dispatch.base_url: %w", err))
		case u.Scheme != "http" && u.Scheme != "https":
			errs = append(errs, fmt.Errorf("dispatch.base_url: scheme must be http or https, got %q", u.Scheme))
		case u.Host == "":
			errs = append(errs, fmt.Errorf("dispatch.base_url: host required"))
		}
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("shutdown_timeout", c.ShutdownTimeout); err != nil {
		errs = append(errs, err)
	}

	if c.NATS != nil && strings.TrimSpace(c.NATS.URL) == "" {
		errs = append(errs, errors.New("nats.url: required when the nats section is present"))
	}

	seen := make(map[string]struct{}, len(c.Reminders))
	for i, r := range c.Reminders {
		path := fmt.Sprintf("reminders[%d]", i)
		id := strings.TrimSpace(r.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("%s.id: required", path))
		} else if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("%s.id: duplicate %q", path, id))
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(r.Schedule) == "" {
			errs = append(errs, fmt.Errorf("%s.schedule: required", path))
		}
		if strings.TrimSpace(r.Recipient) == "" {
			errs = append(errs, fmt.Errorf("%s.recipient: required", path))
		}
		if _, err := ParseDue(r.Due); err != nil {
			errs = append(errs, fmt.Errorf("%s.due: %w", path, err))
		}
	}

	if len(c.Reminders) > 0 && strings.TrimSpace(c.Dispatch.Token) == "" {
		errs = append(errs, fmt.Errorf("dispatch.token: required when reminders are configured (or set %s)", EnvToken))
	}

	return errors.Join(errs...)
}

// ParseDue accepts RFC3339 timestamps or plain dates. Empty means "no due
// date" and yields the zero time.
func ParseDue(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use RFC3339 or YYYY-MM-DD)", raw)
	}
	return t, nil
}
