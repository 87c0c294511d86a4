package manifest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"keepsake/internal/catalog"
	"keepsake/internal/media"
)

type record struct {
	ArchivePath string   `json:"archive_path"`
	Hash        string   `json:"hash"`
	Tags        []string `json:"tags"`
	Sources     []string `json:"sources"`
	ExifDate    *string  `json:"exif_date"`
	FileDate    string   `json:"file_date"`
	IngestedAt  string   `json:"ingested_at"`
	Duration    *float64 `json:"duration,omitempty"`
}

// Export rewrites the full JSONL manifest from the catalog and returns the
// number of records written. The file is replaced atomically via a temp file
// so a crash mid-export never truncates the previous manifest.
func Export(ctx context.Context, store *catalog.Store, path string) (int, error) {
	details, err := store.AllMediaDetails(ctx)
	if err != nil {
		return 0, fmt.Errorf("load media details: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create manifest dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.jsonl")
	if err != nil {
		return 0, fmt.Errorf("create manifest temp: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, detail := range details {
		if err := enc.Encode(toRecord(detail)); err != nil {
			return 0, fmt.Errorf("encode manifest record %s: %w", detail.Fingerprint, err)
		}
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("flush manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close manifest temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("replace manifest: %w", err)
	}
	return len(details), nil
}

func toRecord(detail catalog.Detail) record {
	rec := record{
		ArchivePath: detail.ArchivePath(),
		Hash:        detail.Fingerprint,
		Tags:        detail.Tags,
		Sources:     detail.Sources,
		FileDate:    formatTime(detail.FileDate),
		IngestedAt:  formatTime(detail.IngestedAt),
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	if rec.Sources == nil {
		rec.Sources = []string{}
	}
	if detail.ExifDate != nil {
		formatted := formatTime(*detail.ExifDate)
		rec.ExifDate = &formatted
	}
	if detail.MediaType == media.TypeVideo && detail.Duration != nil {
		rec.Duration = detail.Duration
	}
	return rec
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
