// Package census counts files by extension across a directory tree. It is
// the quick sanity pass run over a source drive before ingesting it: what
// file types are in here, and are any of them macOS library bundles that
// need to be traversed rather than treated as opaque files.
package census

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// NoExtension is the census key for files without an extension.
const NoExtension = "(no extension)"

// macOS packages that present as files in Finder but are directories on
// disk. The walk descends into them so their contents are counted.
var macOSBundleExtensions = map[string]struct{}{
	".photoslibrary":        {},
	".aplibrary":            {},
	".migratedphotolibrary": {},
	".fcpbundle":            {},
	".fcpproject":           {},
	".imovielibrary":        {},
	".musiclibrary":         {},
	".garageband":           {},
	".band":                 {},
}

// Options controls a census walk.
type Options struct {
	// IncludeHidden counts dot-prefixed files and descends into
	// dot-prefixed directories.
	IncludeHidden bool
	// TrackBundles collects the paths of macOS library bundles found.
	TrackBundles bool
}

// Result holds extension counts and any bundles found during a walk.
type Result struct {
	Counts  map[string]int
	Bundles []string
}

// Total returns the number of files counted.
func (r Result) Total() int {
	total := 0
	for _, count := range r.Counts {
		total += count
	}
	return total
}

// Entry is one extension with its count.
type Entry struct {
	Extension string
	Count     int
}

// Sorted returns entries by descending count, ties broken by extension.
func (r Result) Sorted() []Entry {
	entries := make([]Entry, 0, len(r.Counts))
	for ext, count := range r.Counts {
		entries = append(entries, Entry{Extension: ext, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Extension < entries[j].Extension
	})
	return entries
}

// IsBundle reports whether a directory name is a macOS library bundle.
func IsBundle(name string) bool {
	_, ok := macOSBundleExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Run walks root and counts files by lowercased extension.
func Run(root string, opts Options) (Result, error) {
	result := Result{Counts: make(map[string]int)}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		hidden := strings.HasPrefix(name, ".") && path != root

		if d.IsDir() {
			if hidden && !opts.IncludeHidden {
				return filepath.SkipDir
			}
			if opts.TrackBundles && path != root && IsBundle(name) {
				result.Bundles = append(result.Bundles, path)
			}
			return nil
		}

		if hidden && !opts.IncludeHidden {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext == "" {
			ext = NoExtension
		}
		result.Counts[ext]++
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("census walk %s: %w", root, err)
	}

	sort.Strings(result.Bundles)
	return result, nil
}
