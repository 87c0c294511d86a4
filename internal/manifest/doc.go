// Package manifest regenerates the human-readable JSONL sidecar from the
// catalog. The file exists for long-term durability: if the database is ever
// lost, every record's archive path, fingerprint, tags, and provenance
// survive as plain text.
package manifest
