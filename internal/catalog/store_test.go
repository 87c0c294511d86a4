package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"keepsake/internal/catalog"
	"keepsake/internal/media"
)

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func newRecord(fingerprint string) *catalog.MediaRecord {
	return &catalog.MediaRecord{
		ArchiveDir:      "2023/07",
		ArchiveFilename: "IMG_0001.jpg",
		MediaType:       media.TypePhoto,
		Fingerprint:     fingerprint,
		FileSize:        1024,
		FileDate:        time.Date(2023, 7, 14, 10, 30, 0, 0, time.UTC),
		IngestedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestInsertMediaAndFindByFingerprint(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	exif := time.Date(2023, 7, 13, 18, 0, 0, 0, time.UTC)
	rec := newRecord("fp-insert")
	rec.ExifDate = &exif

	id, err := store.InsertMedia(ctx, rec, "/import/trip", "IMG_0001.jpg", []string{"trip", "beach"})
	if err != nil {
		t.Fatalf("InsertMedia failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected assigned id")
	}

	found, err := store.FindByFingerprint(ctx, "fp-insert")
	if err != nil {
		t.Fatalf("FindByFingerprint failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected record")
	}
	if found.ID != id || found.ArchivePath() != "2023/07/IMG_0001.jpg" {
		t.Fatalf("unexpected record: %#v", found)
	}
	if found.ExifDate == nil || !found.ExifDate.Equal(exif) {
		t.Fatalf("expected exif date preserved, got %v", found.ExifDate)
	}
	if !found.FileDate.Equal(rec.FileDate) {
		t.Fatalf("expected file date preserved, got %v", found.FileDate)
	}

	tags, err := store.TagsForMedia(ctx, id)
	if err != nil {
		t.Fatalf("TagsForMedia failed: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"trip", "beach"}) {
		t.Fatalf("unexpected tags: %v", tags)
	}

	missing, err := store.FindByFingerprint(ctx, "fp-unknown")
	if err != nil {
		t.Fatalf("FindByFingerprint failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown fingerprint, got %#v", missing)
	}
}

func TestInsertMediaRejectsDuplicateFingerprint(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.InsertMedia(ctx, newRecord("fp-dup"), "/a", "x.jpg", nil); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	second := newRecord("fp-dup")
	second.ArchiveFilename = "elsewhere.jpg"
	_, err := store.InsertMedia(ctx, second, "/b", "y.jpg", nil)
	if !errors.Is(err, catalog.ErrFingerprintConflict) {
		t.Fatalf("expected ErrFingerprintConflict, got %v", err)
	}

	// The failed transaction must not have persisted anything.
	details, err := store.AllMediaDetails(ctx)
	if err != nil {
		t.Fatalf("AllMediaDetails failed: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected 1 record, got %d", len(details))
	}
	if len(details[0].Sources) != 1 || details[0].Sources[0] != "/a/x.jpg" {
		t.Fatalf("unexpected sources: %v", details[0].Sources)
	}
}

func TestAddSourceIsIdempotent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.InsertMedia(ctx, newRecord("fp-source"), "/import/evt1", "a.jpg", nil)
	if err != nil {
		t.Fatalf("InsertMedia failed: %v", err)
	}

	// Same pair twice, a second filename in the same folder, and a new folder.
	for _, src := range [][2]string{
		{"/import/evt1", "a.jpg"},
		{"/import/evt1", "a_copy.jpg"},
		{"/import/evt2", "a.jpg"},
		{"/import/evt2", "a.jpg"},
	} {
		if err := store.AddSource(ctx, id, src[0], src[1]); err != nil {
			t.Fatalf("AddSource(%v) failed: %v", src, err)
		}
	}

	details, err := store.AllMediaDetails(ctx)
	if err != nil {
		t.Fatalf("AllMediaDetails failed: %v", err)
	}
	want := []string{"/import/evt1/a.jpg", "/import/evt1/a_copy.jpg", "/import/evt2/a.jpg"}
	if !reflect.DeepEqual(details[0].Sources, want) {
		t.Fatalf("unexpected sources:\n got %v\nwant %v", details[0].Sources, want)
	}
}

func TestAddTagsUnionAndReplace(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.InsertMedia(ctx, newRecord("fp-tags"), "/import", "a.jpg", []string{"trip"})
	if err != nil {
		t.Fatalf("InsertMedia failed: %v", err)
	}

	if err := store.AddTags(ctx, id, []string{"trip", "beach", ""}); err != nil {
		t.Fatalf("AddTags failed: %v", err)
	}
	tags, err := store.TagsForMedia(ctx, id)
	if err != nil {
		t.Fatalf("TagsForMedia failed: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"trip", "beach"}) {
		t.Fatalf("expected union without duplicates, got %v", tags)
	}

	if err := store.ReplaceTags(ctx, id, []string{"holiday"}); err != nil {
		t.Fatalf("ReplaceTags failed: %v", err)
	}
	tags, err = store.TagsForMedia(ctx, id)
	if err != nil {
		t.Fatalf("TagsForMedia failed: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"holiday"}) {
		t.Fatalf("expected replaced tags, got %v", tags)
	}
}

func TestAllFingerprintsAndLocations(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := newRecord("fp-one")
	if _, err := store.InsertMedia(ctx, first, "/src", "a.jpg", nil); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	second := newRecord("fp-two")
	second.ArchiveDir = "2024/01"
	second.ArchiveFilename = "clip.mp4"
	second.MediaType = media.TypeVideo
	if _, err := store.InsertMedia(ctx, second, "/src", "clip.mp4", nil); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	fingerprints, err := store.AllFingerprints(ctx)
	if err != nil {
		t.Fatalf("AllFingerprints failed: %v", err)
	}
	if len(fingerprints) != 2 {
		t.Fatalf("expected 2 fingerprints, got %d", len(fingerprints))
	}
	if _, ok := fingerprints["fp-two"]; !ok {
		t.Fatal("expected fp-two present")
	}

	locations, err := store.AllMediaWithLocations(ctx)
	if err != nil {
		t.Fatalf("AllMediaWithLocations failed: %v", err)
	}
	want := []catalog.Location{
		{Fingerprint: "fp-one", ArchivePath: "2023/07/IMG_0001.jpg"},
		{Fingerprint: "fp-two", ArchivePath: "2024/01/clip.mp4"},
	}
	if !reflect.DeepEqual(locations, want) {
		t.Fatalf("unexpected locations:\n got %v\nwant %v", locations, want)
	}
}

func TestMediaIDsBySourceFolder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	a := newRecord("fp-a")
	idA, err := store.InsertMedia(ctx, a, "/import/evt1", "a.jpg", nil)
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}
	b := newRecord("fp-b")
	b.ArchiveFilename = "b.jpg"
	idB, err := store.InsertMedia(ctx, b, "/import/evt1", "b.jpg", nil)
	if err != nil {
		t.Fatalf("insert b: %v", err)
	}
	c := newRecord("fp-c")
	c.ArchiveFilename = "c.jpg"
	if _, err := store.InsertMedia(ctx, c, "/import/evt2", "c.jpg", nil); err != nil {
		t.Fatalf("insert c: %v", err)
	}

	ids, err := store.MediaIDsBySourceFolder(ctx, "/import/evt1")
	if err != nil {
		t.Fatalf("MediaIDsBySourceFolder failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{idA, idB}) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestStats(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	photo := newRecord("fp-photo")
	if _, err := store.InsertMedia(ctx, photo, "/src", "a.jpg", []string{"trip"}); err != nil {
		t.Fatalf("insert photo: %v", err)
	}
	video := newRecord("fp-video")
	video.ArchiveFilename = "clip.mp4"
	video.MediaType = media.TypeVideo
	video.FileSize = 2048
	if _, err := store.InsertMedia(ctx, video, "/src", "clip.mp4", []string{"trip", "beach"}); err != nil {
		t.Fatalf("insert video: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := catalog.Stats{Media: 2, Photos: 1, Videos: 1, Tags: 2, Sources: 2, TotalBytes: 3072}
	if stats != want {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestOpenIsIdempotentAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := store.InsertMedia(context.Background(), newRecord("fp-reopen"), "/src", "a.jpg", nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	found, err := reopened.FindByFingerprint(context.Background(), "fp-reopen")
	if err != nil || found == nil {
		t.Fatalf("expected record to survive reopen: %v %v", found, err)
	}
}
