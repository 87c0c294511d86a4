// Package catalog persists the media index backed by SQLite.
//
// One MediaRecord exists per distinct content fingerprint. A record's archive
// location is assigned once and never rewritten; later ingestions of the same
// content only grow its set of source locations and tags. All writes for a
// single ingested file happen inside one transaction so a crash never leaves
// a media row without its first source.
package catalog
