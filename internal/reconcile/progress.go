package reconcile

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressCallback returns an OnResult callback that drives a terminal
// progress bar, or nil when stderr is not a terminal so piped and logged
// runs stay clean.
func ProgressCallback(description string) func(done, total int, relPath string) {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return nil
	}

	var bar *progressbar.ProgressBar
	return func(done, total int, relPath string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(description),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}
}
