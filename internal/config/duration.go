package config

import (
	"fmt"
	"strings"
	"time"
)

const DefaultShutdownTimeout = 10 * time.Second

// ParseDurationField parses a non-negative duration. Empty yields 0.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// ShutdownWait returns the drain timeout, falling back to the default when
// the field is empty or invalid.
func (c *Config) ShutdownWait() time.Duration {
	d, err := ParseDurationOrDefault("shutdown_timeout", c.ShutdownTimeout, DefaultShutdownTimeout)
	if err != nil {
		return DefaultShutdownTimeout
	}
	return d
}
