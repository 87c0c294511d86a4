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

	"keepsake/internal/catalog"
	"keepsake/internal/config"
	"keepsake/internal/fileutil"
	"keepsake/internal/hasher"
	"keepsake/internal/logging"
	"keepsake/internal/media"
	"keepsake/internal/metadata"
	"keepsake/internal/tagger"
)

// Review collects the folder tag suggestions gathered during a run, keyed
// by "<source root name>/<relative folder>" (just the root name for files
// directly under it). It feeds the tag review CSV.
type Review struct {
	FolderTags map[string][]string
	FileCounts map[string]int
}

// Pipeline runs the per-file ingestion sequence over the configured source
// trees against an open catalog. It is single threaded: discovery order
// determines collision resolution and must stay reproducible.
type Pipeline struct {
	cfg    *config.Config
	store  *catalog.Store
	hasher *hasher.Hasher
	prober *metadata.Prober
	logger *slog.Logger
	now    func() time.Time
}

// NewPipeline wires a pipeline from configuration. The prober carries the
// capture-date and duration collaborators.
func NewPipeline(cfg *config.Config, store *catalog.Store, prober *metadata.Prober, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:    cfg,
		store:  store,
		hasher: hasher.New(cfg.Ingest.HashMaxAttempts, time.Duration(cfg.Ingest.HashRetryDelayMS)*time.Millisecond),
		prober: prober,
		logger: logger.With(logging.String(logging.FieldComponent, "ingest")),
		now:    time.Now,
	}
}

// Run ingests every configured source tree. Per-file failures are isolated
// into the stats; only structural faults (a placement collision, a failed
// source walk, context cancellation) abort the run, and the stats returned
// alongside the error honestly cover the work done up to that point.
func (p *Pipeline) Run(ctx context.Context) (Stats, Review, error) {
	stats := Stats{}
	review := Review{
		FolderTags: make(map[string][]string),
		FileCounts: make(map[string]int),
	}
	claims := make(claimSet)
	sessionTime := p.now().UTC()
	stop := p.stopWords()

	for _, root := range p.cfg.Paths.SourceDirs {
		if err := p.processRoot(ctx, root, sessionTime, claims, stop, &stats, &review); err != nil {
			return stats, review, err
		}
	}
	return stats, review, nil
}

// stopWords joins the configured stop words with the archive root's own path
// components, so an archive living under e.g. /mnt/photos never tags its own
// contents "photos".
func (p *Pipeline) stopWords() []string {
	words := append([]string(nil), p.cfg.Tags.StopWords...)
	for _, segment := range strings.Split(filepath.ToSlash(p.cfg.Paths.ArchiveDir), "/") {
		if cleaned := tagger.Clean(segment); cleaned != "" {
			words = append(words, cleaned)
		}
	}
	return words
}

func (p *Pipeline) processRoot(ctx context.Context, root string, sessionTime time.Time, claims claimSet, stop []string, stats *Stats, review *Review) error {
	files, err := media.Discover(root)
	if err != nil {
		return fmt.Errorf("discover %s: %w", root, err)
	}
	p.logger.Info("scanning source tree",
		logging.String(logging.FieldPath, root),
		logging.Int("files", len(files)))
	if len(files) == 0 {
		return nil
	}

	mediaIDs := make(map[string]int64, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		id, duplicate, err := p.processFile(ctx, file, sessionTime, claims, stats)
		if err != nil {
			if errors.Is(err, ErrCollision) {
				return err
			}
			stats.recordError(file, err)
			p.logger.Error("file failed",
				logging.String(logging.FieldPath, file),
				logging.Error(err))
			continue
		}
		mediaIDs[file] = id
		if duplicate {
			stats.Duplicates++
		} else {
			stats.Imported++
		}
	}

	return p.applyFolderTags(ctx, root, files, mediaIDs, stop, stats, review)
}

// processFile runs the hash, dedup, place, record sequence for one file and
// returns the media id plus whether the content was already cataloged.
func (p *Pipeline) processFile(ctx context.Context, path string, sessionTime time.Time, claims claimSet, stats *Stats) (int64, bool, error) {
	fingerprint, err := p.hasher.Hash(ctx, path)
	if err != nil {
		return 0, false, err
	}

	sourceDir := filepath.Dir(path)
	sourceName := filepath.Base(path)

	existing, err := p.store.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		// Duplicate content: no physical copy, just another source location.
		if err := p.store.AddSource(ctx, existing.ID, sourceDir, sourceName); err != nil {
			return 0, false, err
		}
		if tagger.IsThumbnail(sourceDir, sourceName) {
			if err := p.store.AddTags(ctx, existing.ID, []string{"thumbnail"}); err != nil {
				return 0, false, err
			}
			stats.TagsAdded++
		}
		p.logger.Debug("duplicate",
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldFingerprint, fingerprint),
			logging.String("archive_path", existing.ArchivePath()))
		return existing.ID, true, nil
	}

	mediaType := media.Classify(sourceName)
	info, err := p.prober.Probe(ctx, path, mediaType)
	if err != nil {
		return 0, false, err
	}

	date := info.PlacementDate()
	relDir := fmt.Sprintf("%04d/%02d", date.Year(), int(date.Month()))
	finalName, err := resolveName(p.cfg.Paths.ArchiveDir, relDir, sourceName, fingerprint, claims)
	if err != nil {
		return 0, false, err
	}

	dest := filepath.Join(p.cfg.Paths.ArchiveDir, relDir, finalName)
	if err := p.placeFile(path, dest, fingerprint); err != nil {
		return 0, false, err
	}

	rec := &catalog.MediaRecord{
		ArchiveDir:      relDir,
		ArchiveFilename: finalName,
		MediaType:       mediaType,
		Fingerprint:     fingerprint,
		FileSize:        info.FileSize,
		Duration:        info.Duration,
		ExifDate:        info.ExifDate,
		FileDate:        info.FileDate,
		IngestedAt:      sessionTime,
	}
	var tags []string
	if tagger.IsThumbnail(sourceDir, sourceName) {
		tags = []string{"thumbnail"}
	}

	if _, err := p.store.InsertMedia(ctx, rec, sourceDir, sourceName, tags); err != nil {
		p.unplaceFile(path, dest)
		return 0, false, err
	}
	if len(tags) > 0 {
		stats.TagsAdded++
	}

	p.logger.Debug("imported",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldFingerprint, fingerprint),
		logging.String("archive_path", rec.ArchivePath()))
	return rec.ID, false, nil
}

// placeFile moves or copies the source into the archive per the configured
// mode. Copies are verified against the fingerprint so content that changed
// between hashing and copying never lands in the archive.
func (p *Pipeline) placeFile(src, dest, fingerprint string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	if p.cfg.Ingest.Mode == "move" {
		if err := fileutil.MoveFile(src, dest); err != nil {
			return fmt.Errorf("move into archive: %w", err)
		}
		return nil
	}

	digest, err := fileutil.CopyVerified(src, dest)
	if err != nil {
		return fmt.Errorf("copy into archive: %w", err)
	}
	if digest != fingerprint {
		_ = os.Remove(dest)
		return fmt.Errorf("content of %s changed during copy: hashed %s, copied %s", src, fingerprint, digest)
	}
	return nil
}

// unplaceFile undoes a placement after the catalog write failed, so the
// archive never holds bytes the catalog does not know about.
func (p *Pipeline) unplaceFile(src, dest string) {
	if p.cfg.Ingest.Mode == "move" {
		if err := fileutil.MoveFile(dest, src); err != nil {
			p.logger.Error("failed to restore moved file after catalog error",
				logging.String(logging.FieldPath, dest),
				logging.Error(err))
		}
		return
	}
	if err := os.Remove(dest); err != nil {
		p.logger.Error("failed to remove archive copy after catalog error",
			logging.String(logging.FieldPath, dest),
			logging.Error(err))
	}
}

// applyFolderTags runs the folder tagging phase for one source tree: derive
// tags from each folder's path segments and union them onto every media
// record sourced from that folder, duplicates included.
func (p *Pipeline) applyFolderTags(ctx context.Context, root string, files []string, mediaIDs map[string]int64, stop []string, stats *Stats, review *Review) error {
	byFolder := make(map[string][]string)
	for _, file := range files {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", file, err)
		}
		folder := filepath.ToSlash(filepath.Dir(rel))
		byFolder[folder] = append(byFolder[folder], file)
	}

	folderTags, err := tagger.FolderTags(byFolder, root, stop)
	if err != nil {
		return err
	}

	for folder, tags := range folderTags {
		if len(tags) > 0 {
			for _, file := range byFolder[folder] {
				id, ok := mediaIDs[file]
				if !ok {
					continue
				}
				added, err := p.attachNewTags(ctx, id, tags)
				if err != nil {
					stats.recordError(file, err)
					continue
				}
				stats.TagsAdded += added
			}
		}

		key := filepath.Base(root)
		if folder != "." {
			key = key + "/" + folder
		}
		review.FolderTags[key] = tags
		review.FileCounts[key] = len(byFolder[folder])
	}
	return nil
}

// attachNewTags unions tags onto a record and returns how many were actually
// new, so the session tag counter reflects real growth.
func (p *Pipeline) attachNewTags(ctx context.Context, mediaID int64, tags []string) (int, error) {
	existing, err := p.store.TagsForMedia(ctx, mediaID)
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		known[tag] = struct{}{}
	}

	var fresh []string
	for _, tag := range tags {
		if _, ok := known[tag]; !ok {
			fresh = append(fresh, tag)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := p.store.AddTags(ctx, mediaID, fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}
