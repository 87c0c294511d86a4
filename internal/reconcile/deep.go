package reconcile

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"keepsake/internal/catalog"
	"keepsake/internal/hasher"
	"keepsake/internal/logging"
)

// Options tunes a deep reconciliation or manifest run.
type Options struct {
	// Workers is the hash pool width. Zero means DefaultWorkers.
	Workers int
	// MaxAttempts and RetryDelay configure each worker's hashing retry
	// policy. Zero values take the hasher defaults.
	MaxAttempts int
	RetryDelay  time.Duration
	// OnResult, when set, is called by the coordinator after each file
	// completes, in completion order. It runs on the coordinator goroutine.
	OnResult func(done, total int, relPath string)
}

// DefaultWorkers is the hash pool width when none is configured.
const DefaultWorkers = 8

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return DefaultWorkers
}

type hashResult struct {
	relPath     string
	fingerprint string
	err         error
}

// hashTree fans the given relative paths out over a worker pool and returns
// the results channel. Each worker owns one file at a time and applies the
// full retry cycle itself; the channel closes once every submitted file has
// reported. Cancellation stops submission, so workers drain quickly and the
// consumer sees a truncated but well-formed stream.
func hashTree(ctx context.Context, root string, relPaths []string, opts Options) <-chan hashResult {
	jobs := make(chan string)
	results := make(chan hashResult)

	var wg sync.WaitGroup
	for i := 0; i < opts.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := hasher.New(opts.MaxAttempts, opts.RetryDelay)
			for rel := range jobs {
				fp, err := h.Hash(ctx, filepath.Join(root, filepath.FromSlash(rel)))
				results <- hashResult{relPath: rel, fingerprint: fp, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rel := range relPaths {
			select {
			case <-ctx.Done():
				return
			default:
			}
			select {
			case jobs <- rel:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// Deep rehashes every archived file and diffs the fingerprints against the
// catalog. The coordinator classifies results as they arrive, in completion
// order, so callers get live progress; missing records are derived at the
// end from the fingerprints never seen on disk. A cancelled run returns a
// partial report, not an error.
func Deep(ctx context.Context, store *catalog.Store, archiveRoot string, opts Options, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "reconcile"))

	locations, err := store.AllMediaWithLocations(ctx)
	if err != nil {
		return Report{}, err
	}
	expected := make(map[string]string, len(locations))
	for _, loc := range locations {
		expected[loc.Fingerprint] = loc.ArchivePath
	}

	files, err := listArchiveFiles(archiveRoot)
	if err != nil {
		return Report{}, err
	}
	logger.Info("deep check started",
		logging.Int("files", len(files)),
		logging.Int("records", len(locations)),
		logging.Int("workers", opts.workers()))

	var report Report
	seen := make(map[string]struct{}, len(files))
	total := len(files)

	for res := range hashTree(ctx, archiveRoot, files, opts) {
		report.Checked++
		if opts.OnResult != nil {
			opts.OnResult(report.Checked, total, res.relPath)
		}

		switch {
		case res.err != nil:
			report.Errors = append(report.Errors, HashError{RelPath: res.relPath, Reason: res.err.Error()})
			logger.Error("hash failed",
				logging.String(logging.FieldPath, res.relPath),
				logging.Error(res.err))
		default:
			recordedPath, known := expected[res.fingerprint]
			if !known {
				report.Untracked = append(report.Untracked, res.relPath)
				continue
			}
			seen[res.fingerprint] = struct{}{}
			if recordedPath != res.relPath {
				report.Moved = append(report.Moved, Move{
					Expected:    recordedPath,
					Found:       res.relPath,
					Fingerprint: res.fingerprint,
				})
				logger.Warn("content moved",
					logging.String(logging.FieldFingerprint, res.fingerprint),
					logging.String("expected", recordedPath),
					logging.String("found", res.relPath))
				continue
			}
			report.Matched++
		}
	}

	report.Partial = report.Checked < total
	if !report.Partial {
		for fp, path := range expected {
			if _, ok := seen[fp]; !ok {
				report.Missing = append(report.Missing, path)
			}
		}
	}

	sort.Strings(report.Untracked)
	sort.Strings(report.Missing)
	sort.Slice(report.Moved, func(i, j int) bool { return report.Moved[i].Expected < report.Moved[j].Expected })
	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].RelPath < report.Errors[j].RelPath })

	logger.Info("deep check finished",
		logging.Int("checked", report.Checked),
		logging.Int("matched", report.Matched),
		logging.Int("untracked", len(report.Untracked)),
		logging.Int("moved", len(report.Moved)),
		logging.Int("missing", len(report.Missing)),
		logging.Int("errors", len(report.Errors)),
		logging.Bool("partial", report.Partial))
	return report, nil
}
