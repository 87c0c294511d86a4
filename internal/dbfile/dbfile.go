// Package dbfile manages the catalog file lifecycle between the archive and
// a local working copy. The catalog lives inside the archive for durability,
// but SQLite over slow or networked storage is miserable, so sessions work
// against a local copy and move it back when done.
package dbfile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"keepsake/internal/fileutil"
	"keepsake/internal/logging"
)

// Manager moves the catalog between its archive location and a local work
// directory. Acquire before opening the store, Release after closing it.
type Manager struct {
	archivePath string
	workPath    string
	logger      *slog.Logger
	acquired    bool
	now         func() time.Time
}

// New builds a Manager for the catalog at archivePath, working under workDir.
func New(archivePath, workDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		archivePath: archivePath,
		workPath:    filepath.Join(workDir, filepath.Base(archivePath)),
		logger:      logger.With(logging.String(logging.FieldComponent, "dbfile")),
		now:         time.Now,
	}
}

// WorkPath returns the local working copy location.
func (m *Manager) WorkPath() string {
	return m.workPath
}

// Acquire prepares the local working copy and returns its path. An existing
// archive catalog is copied down unless a working copy is already present,
// which indicates a previous session that never released; that copy is kept
// so its writes are not lost.
func (m *Manager) Acquire() (string, error) {
	if err := os.MkdirAll(filepath.Dir(m.workPath), 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}

	_, workErr := os.Stat(m.workPath)
	workExists := workErr == nil

	_, archiveErr := os.Stat(m.archivePath)
	archiveExists := archiveErr == nil

	switch {
	case workExists:
		m.logger.Warn("reusing leftover working catalog", logging.String(logging.FieldPath, m.workPath))
	case archiveExists:
		if err := fileutil.CopyFile(m.archivePath, m.workPath); err != nil {
			return "", fmt.Errorf("copy catalog from archive: %w", err)
		}
		m.logger.Info("copied catalog from archive", logging.String(logging.FieldPath, m.workPath))
	default:
		m.logger.Info("starting new catalog", logging.String(logging.FieldPath, m.workPath))
	}

	m.acquired = true
	return m.workPath, nil
}

// Release archives the working copy: the previous archive catalog is renamed
// with a timestamp suffix as a backup, then the working copy moves into its
// place. Releasing without a prior Acquire is an error.
func (m *Manager) Release() error {
	if !m.acquired {
		return errors.New("catalog was not acquired")
	}
	m.acquired = false

	if _, err := os.Stat(m.workPath); err != nil {
		if os.IsNotExist(err) {
			m.logger.Info("no working catalog to archive")
			return nil
		}
		return fmt.Errorf("stat working catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.archivePath), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	if _, err := os.Stat(m.archivePath); err == nil {
		backup := m.backupPath()
		if err := fileutil.MoveFile(m.archivePath, backup); err != nil {
			return fmt.Errorf("back up previous catalog: %w", err)
		}
		m.logger.Info("backed up previous catalog", logging.String(logging.FieldPath, backup))
	}

	if err := fileutil.MoveFile(m.workPath, m.archivePath); err != nil {
		return fmt.Errorf("archive catalog: %w", err)
	}
	m.logger.Info("catalog archived", logging.String(logging.FieldPath, m.archivePath))
	return nil
}

func (m *Manager) backupPath() string {
	base := filepath.Base(m.archivePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stamp := m.now().Format("20060102_150405")
	return filepath.Join(filepath.Dir(m.archivePath), stem+"_"+stamp+ext)
}
