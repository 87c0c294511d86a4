package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrFingerprintConflict indicates an attempt to catalog a fingerprint that
// already has a record. Callers are expected to look up the fingerprint first;
// hitting this error means the dedup check was skipped or raced, which the
// ingestion pipeline treats as a structural integrity fault.
var ErrFingerprintConflict = errors.New("fingerprint already cataloged")

// Store manages the media index backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the catalog file location.
func (s *Store) Path() string {
	return s.path
}

const mediaColumns = "id, archive_dir, archive_filename, media_type, fingerprint, file_size, duration, exif_date, file_date, ingested_at"

func scanMedia(scanner interface{ Scan(dest ...any) error }) (*MediaRecord, error) {
	var (
		rec       MediaRecord
		mediaType string
		duration  sql.NullFloat64
		exifRaw   sql.NullString
		fileRaw   string
		ingested  string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.ArchiveDir,
		&rec.ArchiveFilename,
		&mediaType,
		&rec.Fingerprint,
		&rec.FileSize,
		&duration,
		&exifRaw,
		&fileRaw,
		&ingested,
	); err != nil {
		return nil, err
	}

	rec.MediaType = mediaTypeFromString(mediaType)
	if duration.Valid {
		value := duration.Float64
		rec.Duration = &value
	}
	if exifRaw.Valid && exifRaw.String != "" {
		t, err := parseTimeString(exifRaw.String)
		if err != nil {
			return nil, fmt.Errorf("media %d: parse exif_date: %w", rec.ID, err)
		}
		rec.ExifDate = &t
	}
	fileDate, err := parseTimeString(fileRaw)
	if err != nil {
		return nil, fmt.Errorf("media %d: parse file_date: %w", rec.ID, err)
	}
	rec.FileDate = fileDate
	ingestedAt, err := parseTimeString(ingested)
	if err != nil {
		return nil, fmt.Errorf("media %d: parse ingested_at: %w", rec.ID, err)
	}
	rec.IngestedAt = ingestedAt
	return &rec, nil
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTimeString(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func timeString(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
