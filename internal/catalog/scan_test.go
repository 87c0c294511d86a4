package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"keepsake/internal/media"
)

func TestScanRejectsCorruptTimestamps(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	rec := &MediaRecord{
		ArchiveDir:      "2023/07",
		ArchiveFilename: "a.jpg",
		MediaType:       media.TypePhoto,
		Fingerprint:     "aaaa",
		FileSize:        4,
		FileDate:        time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC),
		IngestedAt:      time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	if _, err := store.InsertMedia(ctx, rec, "/src", "a.jpg", nil); err != nil {
		t.Fatalf("InsertMedia failed: %v", err)
	}

	if _, err := store.db.ExecContext(ctx, `UPDATE media SET file_date = 'garbage'`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	_, err = store.FindByFingerprint(ctx, "aaaa")
	if err == nil {
		t.Fatal("expected error for unparseable file_date")
	}
	if !strings.Contains(err.Error(), "file_date") {
		t.Fatalf("error should name the bad column, got %v", err)
	}

	if _, err := store.db.ExecContext(ctx, `UPDATE media SET file_date = '2023-07-14 00:00:00', exif_date = 'not a date'`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}
	_, err = store.FindByFingerprint(ctx, "aaaa")
	if err == nil || !strings.Contains(err.Error(), "exif_date") {
		t.Fatalf("expected exif_date parse error, got %v", err)
	}
}
