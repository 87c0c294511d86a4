package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ffprobeDuration returns a DurationFunc backed by the external ffprobe
// binary. A missing binary degrades to an unknown duration instead of an
// error so hosts without ffmpeg installed can still ingest videos.
func ffprobeDuration(binary string) DurationFunc {
	return func(ctx context.Context, path string) (*float64, error) {
		name := strings.TrimSpace(binary)
		if name == "" {
			name = "ffprobe"
		}

		cmd := exec.CommandContext(ctx, name, "-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path)
		output, err := cmd.Output()
		if err != nil {
			var execErr *exec.Error
			if errors.As(err, &execErr) {
				return nil, nil
			}
			detail := ""
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				detail = strings.TrimSpace(string(exitErr.Stderr))
			}
			if detail != "" {
				return nil, fmt.Errorf("ffprobe %s: %w: %s", path, err, detail)
			}
			return nil, fmt.Errorf("ffprobe %s: %w", path, err)
		}
		return parseFormatDuration(output)
	}
}

func parseFormatDuration(payload []byte) (*float64, error) {
	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("ffprobe parse: %w", err)
	}

	raw := strings.TrimSpace(result.Format.Duration)
	if raw == "" || strings.EqualFold(raw, "N/A") {
		return nil, nil
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("ffprobe duration %q: %w", raw, err)
	}
	if seconds < 0 {
		return nil, nil
	}
	return &seconds, nil
}
