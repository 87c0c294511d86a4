package ingest

import "fmt"

// Stats accumulates per-file outcomes across one ingestion session. Errors
// are counted and detailed but never abort the run; they surface here for
// the session summary and log.
type Stats struct {
	Imported     int
	Duplicates   int
	TagsAdded    int
	Errors       int
	ErrorDetails []string
}

func (s *Stats) recordError(path string, err error) {
	s.Errors++
	s.ErrorDetails = append(s.ErrorDetails, fmt.Sprintf("%s: %v", path, err))
}
