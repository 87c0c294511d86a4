package manifest_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepsake/internal/catalog"
	"keepsake/internal/manifest"
	"keepsake/internal/media"
)

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var obj map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &obj))
		lines = append(lines, obj)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestExportWritesOneLinePerRecord(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	exif := time.Date(2023, 7, 14, 10, 30, 0, 0, time.UTC)
	photo := &catalog.MediaRecord{
		ArchiveDir:      "2023/07",
		ArchiveFilename: "IMG_0001.jpg",
		MediaType:       media.TypePhoto,
		Fingerprint:     "fp-photo",
		FileSize:        100,
		ExifDate:        &exif,
		FileDate:        time.Date(2023, 7, 14, 11, 0, 0, 0, time.UTC),
		IngestedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := store.InsertMedia(ctx, photo, "/import/trip", "IMG_0001.jpg", []string{"trip"})
	require.NoError(t, err)

	duration := 42.5
	video := &catalog.MediaRecord{
		ArchiveDir:      "2024/01",
		ArchiveFilename: "clip.mp4",
		MediaType:       media.TypeVideo,
		Fingerprint:     "fp-video",
		FileSize:        200,
		Duration:        &duration,
		FileDate:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		IngestedAt:      time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC),
	}
	_, err = store.InsertMedia(ctx, video, "/import/videos", "clip.mp4", nil)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "nested", "manifest.jsonl")
	count, err := manifest.Export(ctx, store, out)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	lines := readLines(t, out)
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "2023/07/IMG_0001.jpg", first["archive_path"])
	assert.Equal(t, "fp-photo", first["hash"])
	assert.Equal(t, []any{"trip"}, first["tags"])
	assert.Equal(t, []any{"/import/trip/IMG_0001.jpg"}, first["sources"])
	assert.Equal(t, "2023-07-14T10:30:00Z", first["exif_date"])
	assert.NotContains(t, first, "duration")

	second := lines[1]
	assert.Equal(t, "2024/01/clip.mp4", second["archive_path"])
	assert.Nil(t, second["exif_date"])
	assert.Equal(t, 42.5, second["duration"])
	assert.Equal(t, []any{}, second["tags"])
}

func TestExportReplacesPreviousManifest(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	out := filepath.Join(t.TempDir(), "manifest.jsonl")
	require.NoError(t, os.WriteFile(out, []byte("stale contents\n"), 0o644))

	rec := &catalog.MediaRecord{
		ArchiveDir:      "2023/07",
		ArchiveFilename: "a.jpg",
		MediaType:       media.TypePhoto,
		Fingerprint:     "fp-a",
		FileDate:        time.Now().UTC(),
		IngestedAt:      time.Now().UTC(),
	}
	_, err := store.InsertMedia(ctx, rec, "/src", "a.jpg", nil)
	require.NoError(t, err)

	count, err := manifest.Export(ctx, store, out)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	lines := readLines(t, out)
	require.Len(t, lines, 1)
	assert.Equal(t, "fp-a", lines[0]["hash"])
}

func TestExportEmptyCatalog(t *testing.T) {
	store := openStore(t)
	out := filepath.Join(t.TempDir(), "manifest.jsonl")

	count, err := manifest.Export(context.Background(), store, out)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Empty(t, data)
}
