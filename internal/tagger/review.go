package tagger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var reviewHeader = []string{"folder", "file_count", "tags"}

// WriteReviewCSV writes the per-session tag review file: one row per source
// folder with its file count and comma-separated suggested tags, sorted by
// folder for a stable diff against the edited copy.
func WriteReviewCSV(path string, folderTags map[string][]string, fileCounts map[string]int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create review dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create review csv: %w", err)
	}
	defer f.Close()

	folders := make([]string, 0, len(folderTags))
	for folder := range folderTags {
		folders = append(folders, folder)
	}
	sort.Strings(folders)

	w := csv.NewWriter(f)
	if err := w.Write(reviewHeader); err != nil {
		return fmt.Errorf("write review header: %w", err)
	}
	for _, folder := range folders {
		row := []string{
			folder,
			strconv.Itoa(fileCounts[folder]),
			strings.Join(folderTags[folder], ","),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write review row %s: %w", folder, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush review csv: %w", err)
	}
	return f.Close()
}

// LoadReviewCSV parses an edited review file back into a folder to tags
// mapping. Tag values are re-cleaned so hand-typed entries obey the same
// normalization as extracted ones; an empty tags field yields an empty list,
// which clears the folder's tags on apply.
func LoadReviewCSV(path string) (map[string][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open review csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse review csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("review csv %s is empty", path)
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	folderIdx, ok := col["folder"]
	if !ok {
		return nil, fmt.Errorf("review csv %s is missing the folder column", path)
	}
	tagsIdx, ok := col["tags"]
	if !ok {
		return nil, fmt.Errorf("review csv %s is missing the tags column", path)
	}

	result := make(map[string][]string, len(records)-1)
	for _, record := range records[1:] {
		if folderIdx >= len(record) || tagsIdx >= len(record) {
			continue
		}
		folder := strings.TrimSpace(record[folderIdx])
		if folder == "" {
			continue
		}

		tags := []string{}
		for _, raw := range strings.Split(record[tagsIdx], ",") {
			if cleaned := Clean(raw); cleaned != "" {
				tags = append(tags, cleaned)
			}
		}
		result[folder] = tags
	}
	return result, nil
}
