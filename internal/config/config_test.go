package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logx "pactnotify/pkg/logx"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const sampleYAML = `
dispatch:
  base_url: https://notify.example.com
  token: svc-token
logging:
  level: debug
metrics:
  enabled: true
nats:
  url: nats://127.0.0.1:4222
timezone: UTC
shutdown_timeout: 3s
reminders:
  - id: daily-report
    schedule: "0 9 * * *"
    recipient: user-1
    task_id: task-1
    task_title: Write report
    due: 2026-11-01
`

func TestParseYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifyd.yaml")
	writeFile(t, path, sampleYAML)

	m := NewManager(path)
	m.SetEnv(noEnv)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dispatch.BaseURL != "https://notify.example.com" {
		t.Fatalf("base_url = %q", cfg.Dispatch.BaseURL)
	}
	if !cfg.Logging.Console {
		t.Fatalf("console logging default lost when logging section is partial")
	}
	if cfg.Metrics.Addr != DefaultMetricsAddr {
		t.Fatalf("metrics addr = %q, want default", cfg.Metrics.Addr)
	}
	if cfg.NATS == nil || cfg.NATS.Subject != DefaultNATSSubject {
		t.Fatalf("nats subject default not applied: %+v", cfg.NATS)
	}
	if len(cfg.Reminders) != 1 || cfg.Reminders[0].TaskTitle != "Write report" {
		t.Fatalf("reminders = %+v", cfg.Reminders)
	}
	if got := cfg.ShutdownWait(); got != 3*time.Second {
		t.Fatalf("ShutdownWait = %v", got)
	}
	if m.Get() != cfg {
		t.Fatalf("Load did not commit")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifyd.json")
	writeFile(t, path, `{"dispatch":{"base_url":"http://x:1"},"telegram":{}}`)

	m := NewManager(path)
	m.SetEnv(noEnv)
	if _, err := m.Parse(); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifyd.json")
	writeFile(t, path, `{} {}`)

	m := NewManager(path)
	m.SetEnv(noEnv)
	if _, err := m.Parse(); err == nil || !strings.Contains(err.Error(), "trailing") {
		t.Fatalf("expected trailing data error, got %v", err)
	}
}

func TestMissingFileYieldsDefaults(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "absent.yaml"))
	m.SetEnv(noEnv)
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Metrics.Addr != DefaultMetricsAddr {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ShutdownWait() != DefaultShutdownTimeout {
		t.Fatalf("ShutdownWait = %v", cfg.ShutdownWait())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifyd.yaml")
	writeFile(t, path, "dispatch:\n  base_url: http://file:5000\n  token: from-file\n")

	env := map[string]string{
		EnvBaseURL:  "https://env.example.com",
		EnvToken:    "from-env",
		EnvLogLevel: "warn",
	}
	m := NewManager(path)
	m.SetEnv(func(k string) string { return env[k] })
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Dispatch.BaseURL != "https://env.example.com" || cfg.Dispatch.Token != "from-env" || cfg.Logging.Level != "warn" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"bad scheme", Config{Dispatch: DispatchConfig{BaseURL: "ftp://x"}}, "scheme"},
		{"no host", Config{Dispatch: DispatchConfig{BaseURL: "http://"}}, "host"},
		{"bad timezone", Config{Timezone: "Mars/Olympus"}, "timezone"},
		{"nats without url", Config{NATS: &NATSConfig{}}, "nats.url"},
		{"bad shutdown timeout", Config{ShutdownTimeout: "soon"}, "shutdown_timeout"},
		{
			"duplicate reminder",
			Config{
				Dispatch: DispatchConfig{Token: "t"},
				Reminders: []ReminderConfig{
					{ID: "a", Schedule: "@daily", Recipient: "u"},
					{ID: "a", Schedule: "@daily", Recipient: "u"},
				},
			},
			"duplicate",
		},
		{
			"reminder without token",
			Config{Reminders: []ReminderConfig{{ID: "a", Schedule: "@daily", Recipient: "u"}}},
			"dispatch.token",
		},
		{
			"bad due",
			Config{
				Dispatch:  DispatchConfig{Token: "t"},
				Reminders: []ReminderConfig{{ID: "a", Schedule: "@daily", Recipient: "u", Due: "next week"}},
			},
			"due",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestParseDue(t *testing.T) {
	if d, err := ParseDue(""); err != nil || !d.IsZero() {
		t.Fatalf("empty due: %v %v", d, err)
	}
	d, err := ParseDue("2026-11-01")
	if err != nil || d.Day() != 1 || d.Month() != time.November {
		t.Fatalf("date due: %v %v", d, err)
	}
	d, err = ParseDue("2026-11-01T15:04:05Z")
	if err != nil || d.Hour() != 15 {
		t.Fatalf("rfc3339 due: %v %v", d, err)
	}
}

func TestSummarizeChangeNeverLogsToken(t *testing.T) {
	oldCfg := Default()
	newCfg := Default()
	newCfg.Dispatch.Token = "super-secret"
	newCfg.Reminders = []ReminderConfig{{ID: "a"}}

	changed, fields := SummarizeChange(oldCfg, newCfg)
	if strings.Join(changed, ",") != "dispatch,reminders" {
		t.Fatalf("changed = %v", changed)
	}
	var buf bytes.Buffer
	logx.New(&buf, "info").Info("config reloaded", fields...)
	if strings.Contains(buf.String(), "super-secret") {
		t.Fatalf("token leaked: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"dispatch.token_set":true`) {
		t.Fatalf("missing token_set field: %s", buf.String())
	}
}

func TestWatchPublishesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifyd.yaml")
	writeFile(t, path, "logging:\n  level: info\n")

	m := NewManager(path)
	m.SetEnv(noEnv)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	updates := m.Subscribe(1)
	defer m.Unsubscribe(updates)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Watch(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(300 * time.Millisecond)
	defer tick.Stop()
	for {
		// Rewrite until the watcher is up and has seen a change.
		writeFile(t, path, "logging:\n  level: debug\n")
		select {
		case cfg := <-updates:
			if cfg.Logging.Level != "debug" {
				t.Fatalf("level = %q", cfg.Logging.Level)
			}
			if m.Get().Logging.Level != "debug" {
				t.Fatalf("reload not committed")
			}
			return
		case <-tick.C:
		case <-deadline:
			t.Fatalf("no config published")
		}
	}
}

func TestWatchKeepsConfigWhenValidatorRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifyd.yaml")
	writeFile(t, path, "logging:\n  level: info\n")

	m := NewManager(path)
	m.SetEnv(noEnv)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.SetValidator(func(context.Context, *Config) error { return os.ErrInvalid })

	writeFile(t, path, "logging:\n  level: debug\n")
	m.reload(context.Background())

	if m.Get().Logging.Level != "info" {
		t.Fatalf("rejected config was committed")
	}
}
