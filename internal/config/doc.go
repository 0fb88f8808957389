// Package config loads the notifyd configuration from YAML or JSON, applies
// environment overrides and hot-reloads the file when it changes.
package config
