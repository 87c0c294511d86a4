package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"keepsake/internal/media"
)

func mediaTypeFromString(value string) media.Type {
	if media.Type(value) == media.TypeVideo {
		return media.TypeVideo
	}
	return media.TypePhoto
}

// FindByFingerprint returns the record for a fingerprint, or nil when the
// content has never been cataloged.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (*MediaRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+mediaColumns+` FROM media WHERE fingerprint = ?`,
		fingerprint,
	)
	rec, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	return rec, nil
}

// InsertMedia catalogs new content together with its first source location and
// initial tags in a single transaction. The record, source, and tags become
// visible atomically; a failure rolls everything back and reports an error
// with no partial row left behind.
func (s *Store) InsertMedia(ctx context.Context, rec *MediaRecord, sourceDir, sourceFilename string, tags []string) (int64, error) {
	if rec == nil {
		return 0, errors.New("record is nil")
	}
	if strings.TrimSpace(rec.Fingerprint) == "" {
		return 0, errors.New("fingerprint is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO media (
            archive_dir, archive_filename, media_type, fingerprint,
            file_size, duration, exif_date, file_date, ingested_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ArchiveDir,
		rec.ArchiveFilename,
		string(rec.MediaType),
		rec.Fingerprint,
		rec.FileSize,
		nullableFloat(rec.Duration),
		nullableTimeString(rec.ExifDate),
		timeString(rec.FileDate),
		timeString(rec.IngestedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert media %s: %w", rec.Fingerprint, ErrFingerprintConflict)
		}
		return 0, fmt.Errorf("insert media: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if sourceDir != "" {
		if err := addSourceTx(ctx, tx, id, sourceDir, sourceFilename); err != nil {
			return 0, err
		}
	}
	if err := addTagsTx(ctx, tx, id, tags); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest tx: %w", err)
	}
	rec.ID = id
	return id, nil
}

// AddSource records an observed (directory, filename) pair for cataloged
// media. Re-adding a known pair is a no-op.
func (s *Store) AddSource(ctx context.Context, mediaID int64, sourceDir, sourceFilename string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin source tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := addSourceTx(ctx, tx, mediaID, sourceDir, sourceFilename); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit source tx: %w", err)
	}
	return nil
}

func addSourceTx(ctx context.Context, tx *sql.Tx, mediaID int64, sourceDir, sourceFilename string) error {
	var sourceItemID int64
	row := tx.QueryRowContext(ctx, `SELECT id FROM source_item WHERE source_path = ?`, sourceDir)
	err := row.Scan(&sourceItemID)
	if errors.Is(err, sql.ErrNoRows) {
		res, insertErr := tx.ExecContext(ctx, `INSERT INTO source_item (source_path) VALUES (?)`, sourceDir)
		if insertErr != nil {
			return fmt.Errorf("insert source item: %w", insertErr)
		}
		sourceItemID, insertErr = res.LastInsertId()
		if insertErr != nil {
			return fmt.Errorf("source item id: %w", insertErr)
		}
	} else if err != nil {
		return fmt.Errorf("find source item: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO media_source (media_id, source_item_id, source_filename) VALUES (?, ?, ?)`,
		mediaID, sourceItemID, sourceFilename,
	); err != nil {
		return fmt.Errorf("insert media source: %w", err)
	}
	return nil
}

// AddTags attaches tag values to media as an idempotent union: existing
// attachments are kept, unknown tag values are created on first use.
func (s *Store) AddTags(ctx context.Context, mediaID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tag tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := addTagsTx(ctx, tx, mediaID, tags); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tag tx: %w", err)
	}
	return nil
}

// ReplaceTags swaps the full tag set for a media record. Used only by the
// explicit tag-override flow; normal ingestion always unions.
func (s *Store) ReplaceTags(ctx context.Context, mediaID int64, tags []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM media_tag WHERE media_id = ?`, mediaID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	if err := addTagsTx(ctx, tx, mediaID, tags); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

func addTagsTx(ctx context.Context, tx *sql.Tx, mediaID int64, tags []string) error {
	for _, value := range tags {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		var tagID int64
		row := tx.QueryRowContext(ctx, `SELECT id FROM tag WHERE value = ?`, value)
		err := row.Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			res, insertErr := tx.ExecContext(ctx, `INSERT INTO tag (value) VALUES (?)`, value)
			if insertErr != nil {
				return fmt.Errorf("insert tag %q: %w", value, insertErr)
			}
			tagID, insertErr = res.LastInsertId()
			if insertErr != nil {
				return fmt.Errorf("tag id: %w", insertErr)
			}
		} else if err != nil {
			return fmt.Errorf("find tag %q: %w", value, err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO media_tag (media_id, tag_id) VALUES (?, ?)`,
			mediaID, tagID,
		); err != nil {
			return fmt.Errorf("attach tag %q: %w", value, err)
		}
	}
	return nil
}

// TagsForMedia returns the tag values attached to a media record in
// attachment order.
func (s *Store) TagsForMedia(ctx context.Context, mediaID int64) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT t.value FROM tag t
         JOIN media_tag mt ON t.id = mt.tag_id
         WHERE mt.media_id = ?
         ORDER BY t.id`,
		mediaID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		tags = append(tags, value)
	}
	return tags, rows.Err()
}

// MediaIDsBySourceFolder returns distinct media ids whose recorded source
// directory matches the given absolute path.
func (s *Store) MediaIDsBySourceFolder(ctx context.Context, sourceDir string) ([]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT DISTINCT ms.media_id FROM media_source ms
         JOIN source_item si ON ms.source_item_id = si.id
         WHERE si.source_path = ?
         ORDER BY ms.media_id`,
		sourceDir,
	)
	if err != nil {
		return nil, fmt.Errorf("query media by folder: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AllFingerprints returns every cataloged fingerprint as a set.
func (s *Store) AllFingerprints(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fingerprint FROM media`)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	fingerprints := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		fingerprints[fp] = struct{}{}
	}
	return fingerprints, rows.Err()
}

// AllMediaWithLocations returns every (fingerprint, archive path) pair for
// reconciliation, ordered by id for stable output.
func (s *Store) AllMediaWithLocations(ctx context.Context) ([]Location, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT fingerprint, archive_dir, archive_filename FROM media ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var fp, dir, name string
		if err := rows.Scan(&fp, &dir, &name); err != nil {
			return nil, err
		}
		locations = append(locations, Location{
			Fingerprint: fp,
			ArchivePath: joinArchivePath(dir, name),
		})
	}
	return locations, rows.Err()
}

// AllMediaDetails returns every media record with its sources and tags,
// ordered by id. The manifest export is a direct projection of this.
func (s *Store) AllMediaDetails(ctx context.Context) ([]Detail, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+mediaColumns+` FROM media ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	var details []Detail
	for rows.Next() {
		rec, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, Detail{MediaRecord: *rec})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range details {
		sources, err := s.sourcesForMedia(ctx, details[i].ID)
		if err != nil {
			return nil, err
		}
		details[i].Sources = sources

		tags, err := s.TagsForMedia(ctx, details[i].ID)
		if err != nil {
			return nil, err
		}
		details[i].Tags = tags
	}
	return details, nil
}

func (s *Store) sourcesForMedia(ctx context.Context, mediaID int64) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT si.source_path, ms.source_filename
         FROM media_source ms
         JOIN source_item si ON ms.source_item_id = si.id
         WHERE ms.media_id = ?
         ORDER BY ms.source_item_id, ms.source_filename`,
		mediaID,
	)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var dir, name string
		if err := rows.Scan(&dir, &name); err != nil {
			return nil, err
		}
		sources = append(sources, dir+"/"+name)
	}
	return sources, rows.Err()
}

// Stats aggregates catalog counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	rows, err := s.db.QueryContext(ctx, `SELECT media_type, COUNT(1), COALESCE(SUM(file_size), 0) FROM media GROUP BY media_type`)
	if err != nil {
		return Stats{}, fmt.Errorf("media stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mediaType string
		var count int
		var bytes int64
		if err := rows.Scan(&mediaType, &count, &bytes); err != nil {
			return Stats{}, err
		}
		stats.Media += count
		stats.TotalBytes += bytes
		if mediaTypeFromString(mediaType) == media.TypeVideo {
			stats.Videos += count
		} else {
			stats.Photos += count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tag`).Scan(&stats.Tags); err != nil {
		return Stats{}, fmt.Errorf("tag stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM media_source`).Scan(&stats.Sources); err != nil {
		return Stats{}, fmt.Errorf("source stats: %w", err)
	}
	return stats, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func joinArchivePath(dir, name string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return name
	}
	return dir + "/" + name
}
