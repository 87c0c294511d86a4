package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"keepsake/internal/catalog"
	"keepsake/internal/config"
	"keepsake/internal/dbfile"
	"keepsake/internal/logging"
	"keepsake/internal/manifest"
	"keepsake/internal/metadata"
	"keepsake/internal/tagger"
)

const lockFilename = "ingest.lock"

// Session owns one full ingestion run end to end: the single-instance lock,
// the catalog working copy, the pipeline, and the session artifacts (tag
// review CSV, JSONL manifest, session log).
type Session struct {
	cfg    *config.Config
	logger *slog.Logger
	prober *metadata.Prober
	id     string
	now    func() time.Time
}

// Option adjusts session construction.
type Option func(*Session)

// WithExifDate wires a capture-date reader into the session's prober while
// keeping the ffprobe duration probe. The default session never reports
// capture dates.
func WithExifDate(fn metadata.ExifDateFunc) Option {
	return func(s *Session) {
		s.prober = metadata.New(s.cfg.FFprobeBinary(), fn, s.logger)
	}
}

// NewSession builds a session for the given configuration.
func NewSession(cfg *config.Config, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Session{
		cfg:    cfg,
		logger: logger.With(logging.String(logging.FieldComponent, "session")),
		id:     uuid.NewString(),
		now:    time.Now,
	}
	s.prober = metadata.New(cfg.FFprobeBinary(), nil, s.logger)
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.String(logging.FieldSession, s.id))
	return s
}

// ID returns the session identifier used in logs and summaries.
func (s *Session) ID() string {
	return s.id
}

// Run executes the full ingestion session. The returned stats are valid even
// when an error is returned: they cover the work completed before the fault.
func (s *Session) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.withCatalog(func(store *catalog.Store) error {
		started := s.now().UTC()
		pipeline := NewPipeline(s.cfg, store, s.prober, s.logger)

		var runErr error
		stats, runErr = func() (Stats, error) {
			st, review, err := pipeline.Run(ctx)
			if writeErr := s.writeReviewCSV(review, started); writeErr != nil {
				s.logger.Error("tag review csv failed", logging.Error(writeErr))
				err = errors.Join(err, writeErr)
			}
			return st, err
		}()

		count, exportErr := manifest.Export(ctx, store, s.cfg.Paths.ManifestPath)
		if exportErr != nil {
			runErr = errors.Join(runErr, exportErr)
		} else {
			s.logger.Info("manifest exported",
				logging.String(logging.FieldPath, s.cfg.Paths.ManifestPath),
				logging.Int("records", count))
		}

		if logErr := s.writeSessionLog(stats, started); logErr != nil {
			s.logger.Error("session log failed", logging.Error(logErr))
		}

		s.logger.Info("session summary",
			logging.Int("imported", stats.Imported),
			logging.Int("duplicates", stats.Duplicates),
			logging.Int("tags_added", stats.TagsAdded),
			logging.Int("errors", stats.Errors))
		return runErr
	})
	return stats, err
}

// ApplyTags applies an edited tag review CSV: for every folder row, the tags
// of all media sourced from that folder are replaced with the row's values,
// then the manifest is regenerated.
func (s *Session) ApplyTags(ctx context.Context, csvPath string) error {
	folderTags, err := tagger.LoadReviewCSV(csvPath)
	if err != nil {
		return err
	}

	rootsByName := make(map[string]string, len(s.cfg.Paths.SourceDirs))
	for _, root := range s.cfg.Paths.SourceDirs {
		rootsByName[filepath.Base(root)] = root
	}

	return s.withCatalog(func(store *catalog.Store) error {
		replaced := 0
		for folder, tags := range folderTags {
			rootName, subfolder, _ := strings.Cut(folder, "/")
			root, ok := rootsByName[rootName]
			if !ok {
				s.logger.Warn("unknown source root in review csv", logging.String("folder", folder))
				continue
			}
			dir := root
			if subfolder != "" && subfolder != "." {
				dir = filepath.Join(root, filepath.FromSlash(subfolder))
			}

			ids, err := store.MediaIDsBySourceFolder(ctx, dir)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := store.ReplaceTags(ctx, id, tags); err != nil {
					return err
				}
				replaced++
			}
		}

		count, err := manifest.Export(ctx, store, s.cfg.Paths.ManifestPath)
		if err != nil {
			return err
		}
		s.logger.Info("tag overrides applied",
			logging.Int("folders", len(folderTags)),
			logging.Int("media_updated", replaced),
			logging.Int("manifest_records", count))
		return nil
	})
}

// withCatalog brackets fn with the session lock and the catalog working-copy
// lifecycle: lock, acquire, open, fn, close, release, unlock. The catalog is
// released even when fn fails, so completed per-file transactions survive a
// partial run.
func (s *Session) withCatalog(fn func(*catalog.Store) error) error {
	if err := s.cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(s.cfg.Paths.WorkDir, lockFilename))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return errors.New("another keepsake session is already running")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	files := dbfile.New(s.cfg.Paths.CatalogPath, s.cfg.Paths.WorkDir, s.logger)
	workPath, err := files.Acquire()
	if err != nil {
		return err
	}

	store, err := catalog.Open(workPath)
	if err != nil {
		return errors.Join(err, files.Release())
	}

	fnErr := fn(store)
	if closeErr := store.Close(); closeErr != nil {
		fnErr = errors.Join(fnErr, closeErr)
	}
	if releaseErr := files.Release(); releaseErr != nil {
		fnErr = errors.Join(fnErr, releaseErr)
	}
	return fnErr
}

// writeReviewCSV writes the per-session tag review file next to the
// manifest, stamped with the session start time.
func (s *Session) writeReviewCSV(review Review, started time.Time) error {
	if len(review.FolderTags) == 0 {
		return nil
	}
	path := filepath.Join(
		filepath.Dir(s.cfg.Paths.ManifestPath),
		"tag_review_"+started.Format("20060102_150405")+".csv",
	)
	if err := tagger.WriteReviewCSV(path, review.FolderTags, review.FileCounts); err != nil {
		return err
	}
	s.logger.Info("tag review csv written", logging.String(logging.FieldPath, path))
	return nil
}

// writeSessionLog writes the human-readable per-session summary into the
// log directory.
func (s *Session) writeSessionLog(stats Stats, started time.Time) error {
	path := filepath.Join(s.cfg.Paths.LogDir, "session_"+started.Format("20060102_150405")+".txt")

	var b strings.Builder
	b.WriteString("Keepsake Ingestion Session\n")
	fmt.Fprintf(&b, "Session: %s\n", s.id)
	fmt.Fprintf(&b, "Started: %s\n", started.Format(time.RFC3339))
	fmt.Fprintf(&b, "Sources: %s\n", strings.Join(s.cfg.Paths.SourceDirs, ", "))
	fmt.Fprintf(&b, "Archive: %s\n", s.cfg.Paths.ArchiveDir)
	fmt.Fprintf(&b, "Mode: %s\n\n", s.cfg.Ingest.Mode)
	b.WriteString("Session Summary:\n")
	fmt.Fprintf(&b, "  Imported: %d\n", stats.Imported)
	fmt.Fprintf(&b, "  Duplicates skipped: %d\n", stats.Duplicates)
	fmt.Fprintf(&b, "  Tags added: %d\n", stats.TagsAdded)
	fmt.Fprintf(&b, "  Errors: %d\n", stats.Errors)
	if len(stats.ErrorDetails) > 0 {
		b.WriteString("\nErrors:\n")
		for _, detail := range stats.ErrorDetails {
			fmt.Fprintf(&b, "  - %s\n", detail)
		}
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
