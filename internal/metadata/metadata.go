package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"keepsake/internal/logging"
	"keepsake/internal/media"
)

// Info carries everything probed from a media file before cataloging.
type Info struct {
	// ExifDate is the embedded capture date, nil when the file carries none
	// or no reader is configured.
	ExifDate *time.Time
	// FileDate is the filesystem modification time, always present.
	FileDate time.Time
	// Duration is the playable length in seconds, nil for photos and for
	// videos that could not be probed.
	Duration *float64
	FileSize int64
}

// PlacementDate returns the date that decides the archive directory: the
// capture date when known, the file date otherwise.
func (i Info) PlacementDate() time.Time {
	if i.ExifDate != nil {
		return *i.ExifDate
	}
	return i.FileDate
}

// ExifDateFunc extracts a capture date from embedded file metadata. It
// returns false when the file has no usable capture date.
type ExifDateFunc func(path string) (time.Time, bool)

// DurationFunc reports a playable duration in seconds, nil when unknown.
type DurationFunc func(ctx context.Context, path string) (*float64, error)

// Prober probes files for catalog metadata. The capture-date and duration
// collaborators are injectable so callers can swap real probes for fakes.
type Prober struct {
	exifDate ExifDateFunc
	duration DurationFunc
	logger   *slog.Logger
}

// New builds a Prober that reads durations through the given ffprobe binary.
// A nil exifDate means capture dates are never reported.
func New(ffprobeBinary string, exifDate ExifDateFunc, logger *slog.Logger) *Prober {
	return NewWithDuration(exifDate, ffprobeDuration(ffprobeBinary), logger)
}

// NewWithDuration builds a Prober with a custom duration collaborator.
func NewWithDuration(exifDate ExifDateFunc, duration DurationFunc, logger *slog.Logger) *Prober {
	if exifDate == nil {
		exifDate = func(string) (time.Time, bool) { return time.Time{}, false }
	}
	if duration == nil {
		duration = func(context.Context, string) (*float64, error) { return nil, nil }
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Prober{exifDate: exifDate, duration: duration, logger: logger}
}

// Probe stats the file and gathers its dates, and for videos its duration.
// A failed duration probe is logged and degrades to an unknown duration
// rather than failing the file.
func (p *Prober) Probe(ctx context.Context, path string, mediaType media.Type) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("stat %s: %w", path, err)
	}

	info := Info{
		FileDate: st.ModTime().UTC(),
		FileSize: st.Size(),
	}

	if captured, ok := p.exifDate(path); ok {
		utc := captured.UTC()
		info.ExifDate = &utc
	}

	if mediaType == media.TypeVideo {
		duration, err := p.duration(ctx, path)
		if err != nil {
			p.logger.Warn("duration probe failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err))
		} else {
			info.Duration = duration
		}
	}
	return info, nil
}
