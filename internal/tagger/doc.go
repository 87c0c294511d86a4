// Package tagger derives tag values from source folder structure and drives
// the tag review CSV round trip: write suggestions for a session, then apply
// an edited copy back onto the catalog.
package tagger
