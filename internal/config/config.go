package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for sources, archive, and metadata.
type Paths struct {
	SourceDirs   []string `toml:"source_dirs"`
	ArchiveDir   string   `toml:"archive_dir"`
	CatalogPath  string   `toml:"catalog_path"`
	ManifestPath string   `toml:"manifest_path"`
	WorkDir      string   `toml:"work_dir"`
	LogDir       string   `toml:"log_dir"`
}

// Ingest contains configuration for the ingestion pipeline.
type Ingest struct {
	// Mode selects how files reach the archive: "copy" or "move".
	Mode string `toml:"mode"`
	// HashMaxAttempts bounds hashing retries on transient read failures.
	HashMaxAttempts int `toml:"hash_max_attempts"`
	// HashRetryDelayMS is the base backoff delay in milliseconds; each retry
	// doubles it.
	HashRetryDelayMS int `toml:"hash_retry_delay_ms"`
}

// Tags contains configuration for folder-derived tag extraction.
type Tags struct {
	StopWords []string `toml:"stop_words"`
}

// Verify contains configuration for archive reconciliation.
type Verify struct {
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for keepsake.
//
// Configuration sections by subsystem:
//   - Paths: source trees, archive root, catalog/manifest/log locations
//   - Ingest: copy-vs-move behavior and hashing retry policy
//   - Tags: stop words excluded from folder-derived tags
//   - Verify: reconciliation worker pool width
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Ingest  Ingest  `toml:"ingest"`
	Tags    Tags    `toml:"tags"`
	Verify  Verify  `toml:"verify"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/keepsake/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/keepsake/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("keepsake.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a session needs before any
// processing begins. The archive directory is created too: a missing archive
// root on first ingest is expected, not an error.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.ArchiveDir,
		c.Paths.WorkDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.CatalogPath),
		filepath.Dir(c.Paths.ManifestPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for video duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
