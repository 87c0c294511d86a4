package dbfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestAcquireCopiesArchiveCatalog(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive", "catalog.db")
	writeFile(t, archive, "archived state")

	mgr := New(archive, filepath.Join(dir, "work"), nil)
	workPath, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if got := readFile(t, workPath); got != "archived state" {
		t.Fatalf("unexpected working copy: %q", got)
	}
	// The archive copy stays until release.
	if got := readFile(t, archive); got != "archived state" {
		t.Fatalf("archive copy disturbed: %q", got)
	}
}

func TestAcquireKeepsLeftoverWorkingCopy(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive", "catalog.db")
	writeFile(t, archive, "archived state")

	mgr := New(archive, filepath.Join(dir, "work"), nil)
	writeFile(t, mgr.WorkPath(), "unreleased session")

	workPath, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if got := readFile(t, workPath); got != "unreleased session" {
		t.Fatalf("leftover working copy overwritten: %q", got)
	}
}

func TestAcquireWithNoArchive(t *testing.T) {
	dir := t.TempDir()
	mgr := New(filepath.Join(dir, "archive", "catalog.db"), filepath.Join(dir, "work"), nil)

	workPath, err := mgr.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := os.Stat(workPath); !os.IsNotExist(err) {
		t.Fatalf("expected no working file yet, stat err = %v", err)
	}
}

func TestReleaseBacksUpAndArchives(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive", "catalog.db")
	writeFile(t, archive, "old state")

	mgr := New(archive, filepath.Join(dir, "work"), nil)
	mgr.now = func() time.Time {
		return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	}

	if _, err := mgr.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	writeFile(t, mgr.WorkPath(), "new state")

	if err := mgr.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if got := readFile(t, archive); got != "new state" {
		t.Fatalf("archive not updated: %q", got)
	}
	backup := filepath.Join(dir, "archive", "catalog_20240601_093000.db")
	if got := readFile(t, backup); got != "old state" {
		t.Fatalf("backup missing or wrong: %q", got)
	}
	if _, err := os.Stat(mgr.WorkPath()); !os.IsNotExist(err) {
		t.Fatalf("expected working copy removed, stat err = %v", err)
	}
}

func TestReleaseFirstSessionHasNoBackup(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive", "catalog.db")

	mgr := New(archive, filepath.Join(dir, "work"), nil)
	if _, err := mgr.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	writeFile(t, mgr.WorkPath(), "first state")

	if err := mgr.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if got := readFile(t, archive); got != "first state" {
		t.Fatalf("archive not written: %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(archive))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the catalog in archive dir, got %d entries", len(entries))
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	mgr := New(filepath.Join(t.TempDir(), "catalog.db"), t.TempDir(), nil)
	if err := mgr.Release(); err == nil {
		t.Fatal("expected error for release without acquire")
	}
}

func TestReleaseWithoutWorkingCopy(t *testing.T) {
	dir := t.TempDir()
	mgr := New(filepath.Join(dir, "archive", "catalog.db"), filepath.Join(dir, "work"), nil)
	if _, err := mgr.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	// Nothing was ever written locally.
	if err := mgr.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
}
