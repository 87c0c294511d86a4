package catalog

import (
	"path"
	"time"

	"keepsake/internal/media"
)

// MediaRecord is the cataloged identity of one distinct piece of content.
// ArchiveDir and ArchiveFilename are relative to the archive root and are
// immutable after insertion: the first writer of a fingerprint decides where
// the bytes live.
type MediaRecord struct {
	ID              int64
	ArchiveDir      string
	ArchiveFilename string
	MediaType       media.Type
	Fingerprint     string
	FileSize        int64
	Duration        *float64
	ExifDate        *time.Time
	FileDate        time.Time
	IngestedAt      time.Time
}

// ArchivePath returns the record's location relative to the archive root.
func (r *MediaRecord) ArchivePath() string {
	return path.Join(r.ArchiveDir, r.ArchiveFilename)
}

// Location pairs a fingerprint with its recorded archive path. Reconciliation
// consumes these without loading full records.
type Location struct {
	Fingerprint string
	ArchivePath string
}

// Detail is a denormalized media record used by the manifest export: the
// record plus every known source path and tag.
type Detail struct {
	MediaRecord
	Sources []string
	Tags    []string
}

// Stats aggregates catalog counts for status output.
type Stats struct {
	Media      int
	Photos     int
	Videos     int
	Tags       int
	Sources    int
	TotalBytes int64
}
