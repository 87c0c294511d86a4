package tagger

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Clean normalizes a raw folder segment into a tag value: unicode case
// folding, compatibility decomposition so accented letters reduce to their
// base form, then everything outside [a-z0-9-_] is dropped. An empty result
// means the segment produces no tag.
func Clean(raw string) string {
	folded := cases.Fold().String(strings.TrimSpace(raw))
	decomposed := norm.NFKD.String(folded)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FromPath derives candidate tags for a file from its directory components
// relative to basePath. The filename itself never contributes, and stop
// words are dropped after cleaning.
func FromPath(filePath, basePath string, stopWords []string) ([]string, error) {
	rel, err := filepath.Rel(basePath, filePath)
	if err != nil {
		return nil, fmt.Errorf("relativize %s against %s: %w", filePath, basePath, err)
	}
	if strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("path %s is outside %s", filePath, basePath)
	}

	stop := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		stop[strings.ToLower(word)] = struct{}{}
	}

	var tags []string
	dir := filepath.Dir(rel)
	if dir == "." {
		return nil, nil
	}
	for _, part := range strings.Split(dir, string(filepath.Separator)) {
		cleaned := Clean(part)
		if cleaned == "" {
			continue
		}
		if _, skip := stop[cleaned]; skip {
			continue
		}
		tags = append(tags, cleaned)
	}
	return tags, nil
}

// FolderTags suggests tags per source folder. Each folder key maps to the
// files discovered under it; the first file's path determines the suggested
// tags since every file in a folder shares the same directory components.
func FolderTags(filesByFolder map[string][]string, basePath string, stopWords []string) (map[string][]string, error) {
	result := make(map[string][]string, len(filesByFolder))

	folders := make([]string, 0, len(filesByFolder))
	for folder := range filesByFolder {
		folders = append(folders, folder)
	}
	sort.Strings(folders)

	for _, folder := range folders {
		files := filesByFolder[folder]
		if len(files) == 0 {
			result[folder] = nil
			continue
		}
		tags, err := FromPath(files[0], basePath, stopWords)
		if err != nil {
			return nil, err
		}
		result[folder] = tags
	}
	return result, nil
}

// IsThumbnail reports whether a source location looks like a thumbnail,
// judged by "thumb" appearing in the directory path or filename.
func IsThumbnail(sourceDir, filename string) bool {
	return strings.Contains(strings.ToLower(sourceDir), "thumb") ||
		strings.Contains(strings.ToLower(filename), "thumb")
}
