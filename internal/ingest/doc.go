// Package ingest implements the archival ingestion session: discover media
// under the configured source trees, fingerprint each file, deduplicate
// against the catalog, place new content under the date-organized archive,
// and record provenance and folder-derived tags. A session ends by writing
// the tag review CSV, regenerating the JSONL manifest, and archiving the
// catalog working copy.
//
// One session at a time: an flock on the work directory rejects concurrent
// runs, since the catalog working copy is the shared mutable resource.
package ingest
