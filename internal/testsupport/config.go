// Package testsupport provides shared helpers for keepsake tests: configs
// seeded with per-test temp directories, catalog stores with registered
// cleanup, and content-bearing test files.
package testsupport

import (
	"path/filepath"
	"testing"

	"keepsake/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// A single source directory is created under the test's temp root; tests
// needing more add them via WithSourceDirs.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDirs = []string{filepath.Join(base, "sources")}
	cfg.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfg.Paths.CatalogPath = filepath.Join(base, "archive", "catalog.db")
	cfg.Paths.ManifestPath = filepath.Join(base, "archive", "manifest.jsonl")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Ingest.HashRetryDelayMS = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSourceDirs replaces the configured source trees.
func WithSourceDirs(dirs ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.SourceDirs = dirs
	}
}

// WithMoveMode switches ingestion from copy to move.
func WithMoveMode() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.Mode = "move"
	}
}

// BaseDir returns the temp root backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ArchiveDir)
}
