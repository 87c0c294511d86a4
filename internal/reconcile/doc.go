// Package reconcile verifies the archive against the catalog. The cheap path
// check diffs relative paths only; the deep check rehashes every archived
// file with a worker pool and classifies each mismatch as untracked, moved,
// or missing. Both checks are read-only with respect to the catalog and
// assume nothing they cannot verify themselves.
package reconcile
