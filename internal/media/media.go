// Package media defines which files keepsake treats as archivable media and
// how they are discovered inside a source tree.
package media

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Type partitions media into the two archive categories.
type Type string

const (
	TypePhoto Type = "photo"
	TypeVideo Type = "video"
)

var photoExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".heic": {}, ".tiff": {},
	".bmp": {}, ".gif": {}, ".webp": {}, ".nef": {}, ".nrw": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".wmv": {}, ".m4v": {},
}

// IsSupported reports whether the file name carries a recognized media extension.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := photoExtensions[ext]; ok {
		return true
	}
	_, ok := videoExtensions[ext]
	return ok
}

// Classify derives the media type from the file extension. Anything that is
// not a known video extension counts as a photo, matching ingest behavior for
// unusual photo formats.
func Classify(name string) Type {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := videoExtensions[ext]; ok {
		return TypeVideo
	}
	return TypePhoto
}

// Discover walks root and returns supported media files in sorted order.
// Hidden files and directories (dot prefixed) are skipped. The sorted order
// makes placement-collision resolution reproducible across runs.
func Discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if IsSupported(name) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
