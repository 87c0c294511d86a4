package config

const (
	defaultArchiveDir       = "~/keepsake/archive"
	defaultCatalogPath      = "data/keepsake.db"
	defaultManifestPath     = "data/metadata.jsonl"
	defaultWorkDir          = "~/.local/share/keepsake/work"
	defaultLogDir           = "~/.local/share/keepsake/logs"
	defaultIngestMode       = "copy"
	defaultHashMaxAttempts  = 6
	defaultHashRetryDelayMS = 1000
	defaultVerifyWorkers    = 8
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// defaultStopWords are folder names too generic to carry meaning as tags.
var defaultStopWords = []string{
	"backup", "photos", "images", "media", "camera",
	"dcim", "export", "downloads", "documents",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArchiveDir:   defaultArchiveDir,
			CatalogPath:  defaultCatalogPath,
			ManifestPath: defaultManifestPath,
			WorkDir:      defaultWorkDir,
			LogDir:       defaultLogDir,
		},
		Ingest: Ingest{
			Mode:             defaultIngestMode,
			HashMaxAttempts:  defaultHashMaxAttempts,
			HashRetryDelayMS: defaultHashRetryDelayMS,
		},
		Tags: Tags{
			StopWords: append([]string(nil), defaultStopWords...),
		},
		Verify: Verify{
			Workers: defaultVerifyWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
