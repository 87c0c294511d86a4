package reconcile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ManifestStats summarizes a BuildManifest run.
type ManifestStats struct {
	Files  int
	Errors int
}

// BuildManifest hashes every media file under root with the worker pool and
// writes one "relpath,fingerprint" line per file to outPath, sorted by path.
// Files that exhaust hashing retries produce "relpath,ERROR: reason" lines
// instead of being dropped. It needs no catalog, so it can audit any tree,
// and its output is deterministic regardless of hashing order: the
// coordinator collects all results before writing.
func BuildManifest(ctx context.Context, root, outPath string, opts Options) (ManifestStats, error) {
	files, err := listArchiveFiles(root)
	if err != nil {
		return ManifestStats{}, err
	}

	lines := make(map[string]string, len(files))
	var stats ManifestStats
	total := len(files)

	for res := range hashTree(ctx, root, files, opts) {
		stats.Files++
		if opts.OnResult != nil {
			opts.OnResult(stats.Files, total, res.relPath)
		}
		if res.err != nil {
			stats.Errors++
			lines[res.relPath] = fmt.Sprintf("ERROR: %v", res.err)
			continue
		}
		lines[res.relPath] = res.fingerprint
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return stats, fmt.Errorf("create manifest dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return stats, fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	sorted := make([]string, 0, len(lines))
	for rel := range lines {
		sorted = append(sorted, rel)
	}
	sort.Strings(sorted)

	w := bufio.NewWriter(f)
	for _, rel := range sorted {
		if _, err := fmt.Fprintf(w, "%s,%s\n", rel, lines[rel]); err != nil {
			return stats, fmt.Errorf("write manifest line: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush manifest: %w", err)
	}
	return stats, f.Close()
}
