package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// normalize expands and resolves every path field. Catalog, manifest, and log
// locations given as relative paths are anchored under the archive directory
// so a single directory holds the archive and everything describing it.
func (c *Config) normalize() error {
	archive, err := expandPath(c.Paths.ArchiveDir)
	if err != nil {
		return err
	}
	c.Paths.ArchiveDir = archive

	sources := make([]string, 0, len(c.Paths.SourceDirs))
	for _, dir := range c.Paths.SourceDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return err
		}
		sources = append(sources, expanded)
	}
	c.Paths.SourceDirs = sources

	c.Paths.CatalogPath, err = c.resolveUnderArchive(c.Paths.CatalogPath, defaultCatalogPath)
	if err != nil {
		return err
	}
	c.Paths.ManifestPath, err = c.resolveUnderArchive(c.Paths.ManifestPath, defaultManifestPath)
	if err != nil {
		return err
	}

	c.Paths.WorkDir, err = expandPath(valueOr(c.Paths.WorkDir, defaultWorkDir))
	if err != nil {
		return err
	}
	c.Paths.LogDir, err = expandPath(valueOr(c.Paths.LogDir, defaultLogDir))
	if err != nil {
		return err
	}

	c.Ingest.Mode = strings.ToLower(strings.TrimSpace(c.Ingest.Mode))
	if c.Ingest.Mode == "" {
		c.Ingest.Mode = defaultIngestMode
	}
	if c.Ingest.HashMaxAttempts <= 0 {
		c.Ingest.HashMaxAttempts = defaultHashMaxAttempts
	}
	if c.Ingest.HashRetryDelayMS <= 0 {
		c.Ingest.HashRetryDelayMS = defaultHashRetryDelayMS
	}
	if c.Verify.Workers <= 0 {
		c.Verify.Workers = defaultVerifyWorkers
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	normalizedStops := make([]string, 0, len(c.Tags.StopWords))
	for _, word := range c.Tags.StopWords {
		trimmed := strings.ToLower(strings.TrimSpace(word))
		if trimmed != "" {
			normalizedStops = append(normalizedStops, trimmed)
		}
	}
	c.Tags.StopWords = normalizedStops

	return nil
}

func (c *Config) resolveUnderArchive(value, fallback string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = fallback
	}
	if strings.HasPrefix(trimmed, "~") {
		return expandPath(trimmed)
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed), nil
	}
	if c.Paths.ArchiveDir == "" {
		return "", fmt.Errorf("cannot resolve %q: archive_dir is not set", value)
	}
	return filepath.Join(c.Paths.ArchiveDir, trimmed), nil
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
