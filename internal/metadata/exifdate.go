package metadata

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifDate reads the embedded capture date from a photo's EXIF block. It is
// the production ExifDateFunc: files without parseable EXIF data report no
// capture date rather than an error, since videos and plenty of photos simply
// carry none.
func ExifDate(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, false
	}
	captured, err := x.DateTime()
	if err != nil {
		return time.Time{}, false
	}
	return captured, true
}
