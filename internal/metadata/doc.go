// Package metadata probes media files for the dates and duration the catalog
// records: capture date from embedded metadata when a reader is wired in,
// filesystem modification time always, and playable duration for videos via
// ffprobe.
package metadata
