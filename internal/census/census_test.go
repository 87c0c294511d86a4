package census

import (
	"os"
	"path/filepath"
	"testing"
)

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"a.JPG",
		"b.jpg",
		"clip.mp4",
		"notes",
		".hidden.jpg",
		filepath.Join("sub", "c.jpg"),
		filepath.Join(".cache", "d.jpg"),
		filepath.Join("Photos Library.photoslibrary", "masters", "e.jpg"),
	}
	for _, rel := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestRunCountsByLowercasedExtension(t *testing.T) {
	root := buildTree(t)

	result, err := Run(root, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := result.Counts[".jpg"]; got != 4 {
		t.Fatalf("expected 4 .jpg files, got %d", got)
	}
	if got := result.Counts[".mp4"]; got != 1 {
		t.Fatalf("expected 1 .mp4 file, got %d", got)
	}
	if got := result.Counts[NoExtension]; got != 1 {
		t.Fatalf("expected 1 extensionless file, got %d", got)
	}
	if got := result.Total(); got != 6 {
		t.Fatalf("expected 6 files total, got %d", got)
	}
}

func TestRunIncludeHidden(t *testing.T) {
	root := buildTree(t)

	result, err := Run(root, Options{IncludeHidden: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := result.Counts[".jpg"]; got != 6 {
		t.Fatalf("expected 6 .jpg files with hidden included, got %d", got)
	}
}

func TestRunTracksBundles(t *testing.T) {
	root := buildTree(t)

	result, err := Run(root, Options{TrackBundles: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := filepath.Join(root, "Photos Library.photoslibrary")
	if len(result.Bundles) != 1 || result.Bundles[0] != want {
		t.Fatalf("expected bundle %s, got %v", want, result.Bundles)
	}
}

func TestSortedOrdersByCountDescending(t *testing.T) {
	result := Result{Counts: map[string]int{".jpg": 3, ".mp4": 1, ".png": 3}}
	entries := result.Sorted()

	want := []Entry{{".jpg", 3}, {".png", 3}, {".mp4", 1}}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d: got %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestIsBundle(t *testing.T) {
	if !IsBundle("Photos Library.photoslibrary") {
		t.Fatal("expected photoslibrary to be a bundle")
	}
	if IsBundle("regular-folder") {
		t.Fatal("expected plain folder not to be a bundle")
	}
}

func TestRunMissingRoot(t *testing.T) {
	if _, err := Run(filepath.Join(t.TempDir(), "absent"), Options{}); err == nil {
		t.Fatal("expected error for missing root")
	}
}
