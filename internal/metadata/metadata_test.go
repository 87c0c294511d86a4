package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"keepsake/internal/media"
)

func writeFile(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return path
}

func TestProbeUsesExifDateWhenPresent(t *testing.T) {
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	path := writeFile(t, t.TempDir(), "a.jpg", mtime)

	captured := time.Date(2023, 7, 14, 10, 30, 0, 0, time.UTC)
	prober := NewWithDuration(func(string) (time.Time, bool) {
		return captured, true
	}, nil, nil)

	info, err := prober.Probe(context.Background(), path, media.TypePhoto)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.ExifDate == nil || !info.ExifDate.Equal(captured) {
		t.Fatalf("expected capture date %v, got %v", captured, info.ExifDate)
	}
	if !info.FileDate.Equal(mtime) {
		t.Fatalf("expected file date %v, got %v", mtime, info.FileDate)
	}
	if !info.PlacementDate().Equal(captured) {
		t.Fatalf("expected capture date to win placement, got %v", info.PlacementDate())
	}
	if info.FileSize != int64(len("payload")) {
		t.Fatalf("unexpected size %d", info.FileSize)
	}
}

func TestProbeFallsBackToFileDate(t *testing.T) {
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	path := writeFile(t, t.TempDir(), "a.jpg", mtime)

	prober := NewWithDuration(nil, nil, nil)
	info, err := prober.Probe(context.Background(), path, media.TypePhoto)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.ExifDate != nil {
		t.Fatalf("expected no capture date, got %v", info.ExifDate)
	}
	if !info.PlacementDate().Equal(mtime) {
		t.Fatalf("expected file date for placement, got %v", info.PlacementDate())
	}
}

func TestProbeVideoDuration(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clip.mp4", time.Now())

	seconds := 12.5
	prober := NewWithDuration(nil, func(context.Context, string) (*float64, error) {
		return &seconds, nil
	}, nil)

	info, err := prober.Probe(context.Background(), path, media.TypeVideo)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Duration == nil || *info.Duration != seconds {
		t.Fatalf("expected duration %v, got %v", seconds, info.Duration)
	}
}

func TestProbeDurationFailureDegradesToNil(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clip.mp4", time.Now())

	prober := NewWithDuration(nil, func(context.Context, string) (*float64, error) {
		return nil, errors.New("probe exploded")
	}, nil)

	info, err := prober.Probe(context.Background(), path, media.TypeVideo)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.Duration != nil {
		t.Fatalf("expected nil duration after probe failure, got %v", *info.Duration)
	}
}

func TestProbeDoesNotProbeDurationForPhotos(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.jpg", time.Now())

	called := false
	prober := NewWithDuration(nil, func(context.Context, string) (*float64, error) {
		called = true
		return nil, nil
	}, nil)

	if _, err := prober.Probe(context.Background(), path, media.TypePhoto); err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if called {
		t.Fatal("duration probe must not run for photos")
	}
}

func TestProbeMissingFile(t *testing.T) {
	prober := NewWithDuration(nil, nil, nil)
	_, err := prober.Probe(context.Background(), filepath.Join(t.TempDir(), "absent.jpg"), media.TypePhoto)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestParseFormatDuration(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    *float64
		wantErr bool
	}{
		{name: "seconds", payload: `{"format":{"duration":"12.480000"}}`, want: floatPtr(12.48)},
		{name: "missing", payload: `{"format":{}}`, want: nil},
		{name: "not available", payload: `{"format":{"duration":"N/A"}}`, want: nil},
		{name: "garbage value", payload: `{"format":{"duration":"soon"}}`, wantErr: true},
		{name: "garbage payload", payload: `{{`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseFormatDuration([]byte(tc.payload))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("got %v, want %v", *got, *tc.want)
			}
		})
	}
}

func TestFFprobeDurationMissingBinary(t *testing.T) {
	probe := ffprobeDuration("keepsake-test-no-such-binary")
	duration, err := probe(context.Background(), "whatever.mp4")
	if err != nil {
		t.Fatalf("expected missing binary to degrade, got %v", err)
	}
	if duration != nil {
		t.Fatalf("expected nil duration, got %v", *duration)
	}
}

func floatPtr(v float64) *float64 { return &v }
