package reconcile

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"keepsake/internal/catalog"
	"keepsake/internal/media"
)

// CheckPaths diffs the archive's relative file paths against the catalog's
// recorded locations. It reads no file content, so it is the fast first pass
// before a deep check.
func CheckPaths(ctx context.Context, store *catalog.Store, archiveRoot string) (PathReport, error) {
	locations, err := store.AllMediaWithLocations(ctx)
	if err != nil {
		return PathReport{}, err
	}
	recorded := make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		recorded[loc.ArchivePath] = struct{}{}
	}

	files, err := listArchiveFiles(archiveRoot)
	if err != nil {
		return PathReport{}, err
	}
	onDisk := make(map[string]struct{}, len(files))
	for _, rel := range files {
		onDisk[rel] = struct{}{}
	}

	var report PathReport
	for path := range recorded {
		if _, ok := onDisk[path]; !ok {
			report.Missing = append(report.Missing, path)
		}
	}
	for path := range onDisk {
		if _, ok := recorded[path]; !ok {
			report.Untracked = append(report.Untracked, path)
		}
	}
	sort.Strings(report.Missing)
	sort.Strings(report.Untracked)
	return report, nil
}

// listArchiveFiles returns the slash-separated relative paths of every media
// file under root, sorted. Hidden entries are skipped, as are non-media
// files: the catalog, manifest, and session artifacts living inside the
// archive are not archived content.
func listArchiveFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !media.IsSupported(name) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk archive %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
