package media

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := map[string]Type{
		"IMG_0001.JPG":   TypePhoto,
		"scan.tiff":      TypePhoto,
		"raw.NEF":        TypePhoto,
		"clip.mp4":       TypeVideo,
		"holiday.MOV":    TypeVideo,
		"weird.unknown":  TypePhoto,
		"noextension":    TypePhoto,
		"archive.m4v":    TypeVideo,
		"animation.webp": TypePhoto,
	}
	for name, want := range cases {
		if got := Classify(name); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestIsSupported(t *testing.T) {
	if !IsSupported("photo.HEIC") {
		t.Fatal("expected HEIC to be supported")
	}
	if IsSupported("notes.txt") {
		t.Fatal("expected txt to be unsupported")
	}
	if IsSupported("Makefile") {
		t.Fatal("expected extension-less file to be unsupported")
	}
}

func TestDiscoverSkipsHiddenAndSorts(t *testing.T) {
	root := t.TempDir()
	mustWrite := func(rel string) {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(rel), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	mustWrite("trip/b.jpg")
	mustWrite("trip/a.jpg")
	mustWrite("trip/notes.txt")
	mustWrite("trip/.hidden.jpg")
	mustWrite(".cache/thumb.jpg")
	mustWrite("clip.mov")

	files, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := []string{
		filepath.Join(root, "clip.mov"),
		filepath.Join(root, "trip", "a.jpg"),
		filepath.Join(root, "trip", "b.jpg"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("unexpected discovery result:\n got %v\nwant %v", files, want)
	}
}
