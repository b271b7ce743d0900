// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"inkflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Workflow.FallbackAssigneeID = 999

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithFallbackAssignee overrides the handoff fallback account.
func WithFallbackAssignee(id int64) ConfigOption {
	return func(c *config.Config) {
		c.Workflow.FallbackAssigneeID = id
	}
}

// WithNumberPrefix overrides the file number prefix.
func WithNumberPrefix(prefix string) ConfigOption {
	return func(c *config.Config) {
		c.Workflow.FileNumberPrefix = prefix
	}
}
