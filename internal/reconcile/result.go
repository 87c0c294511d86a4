package reconcile

// Move records content found at a different path than the catalog expects.
type Move struct {
	// Expected is the archive path the catalog records.
	Expected string
	// Found is the relative path the content actually lives at.
	Found string
	// Fingerprint identifies the moved content.
	Fingerprint string
}

// HashError records a file that could not be hashed after bounded retries.
type HashError struct {
	RelPath string
	Reason  string
}

// Report is the outcome of a deep reconciliation pass. A cancelled run
// yields a partial report covering exactly the files processed so far.
type Report struct {
	Checked int
	Matched int
	// Untracked files exist on disk with no catalog record.
	Untracked []string
	// Moved content is intact but at a drifted path.
	Moved []Move
	// Missing catalog records have no content anywhere on disk.
	Missing []string
	// Errors are files that exhausted hashing retries.
	Errors []HashError
	// Partial marks a run that stopped before covering every file.
	Partial bool
}

// Clean reports whether the archive and catalog agree exactly.
func (r Report) Clean() bool {
	return !r.Partial &&
		len(r.Untracked) == 0 &&
		len(r.Moved) == 0 &&
		len(r.Missing) == 0 &&
		len(r.Errors) == 0
}

// PathReport is the outcome of the cheap path-only check.
type PathReport struct {
	// Missing paths are recorded in the catalog but absent on disk.
	Missing []string
	// Untracked paths exist on disk but not in the catalog.
	Untracked []string
}

// Clean reports whether both path sets agree.
func (r PathReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Untracked) == 0
}
