package reconcile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Classification markers used in the textual report:
//
//	>>  recorded in the catalog but not on disk (missing)
//	<<  on disk but not in the catalog (untracked), and hash errors
//	~~  content intact but at a drifted path (moved)

// Render writes the human-readable deep report.
func Render(w io.Writer, report Report) error {
	for _, path := range report.Missing {
		if _, err := fmt.Fprintf(w, ">> MISSING: %s\n", path); err != nil {
			return err
		}
	}
	for _, path := range report.Untracked {
		if _, err := fmt.Fprintf(w, "<< UNTRACKED: %s\n", path); err != nil {
			return err
		}
	}
	for _, move := range report.Moved {
		if _, err := fmt.Fprintf(w, "~~ MOVED: %s\n      expected: %s\n", move.Found, move.Expected); err != nil {
			return err
		}
	}
	for _, hashErr := range report.Errors {
		if _, err := fmt.Fprintf(w, "<< ERROR: %s - %s\n", hashErr.RelPath, hashErr.Reason); err != nil {
			return err
		}
	}

	status := "OK - archive and catalog agree"
	if report.Partial {
		status = "PARTIAL - run stopped before covering every file"
	} else if !report.Clean() {
		status = "MISMATCH - see details above"
	}
	_, err := fmt.Fprintf(w,
		"\nChecked: %d  Matched: %d  Untracked: %d  Moved: %d  Missing: %d  Errors: %d\nStatus: %s\n",
		report.Checked, report.Matched,
		len(report.Untracked), len(report.Moved), len(report.Missing), len(report.Errors),
		status)
	return err
}

// RenderPaths writes the human-readable path-check report.
func RenderPaths(w io.Writer, report PathReport) error {
	for _, path := range report.Missing {
		if _, err := fmt.Fprintf(w, ">> MISSING: %s\n", path); err != nil {
			return err
		}
	}
	for _, path := range report.Untracked {
		if _, err := fmt.Fprintf(w, "<< UNTRACKED: %s\n", path); err != nil {
			return err
		}
	}
	status := "OK - all paths accounted for"
	if !report.Clean() {
		status = "MISMATCH - see details above"
	}
	_, err := fmt.Fprintf(w, "\nMissing: %d  Untracked: %d\nStatus: %s\n",
		len(report.Missing), len(report.Untracked), status)
	return err
}

// WriteCSV writes the deep report as machine-readable CSV with one row per
// classified entry: classification, path, detail.
func WriteCSV(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"classification", "path", "detail"}); err != nil {
		return err
	}
	for _, path := range report.Missing {
		if err := cw.Write([]string{"missing", path, ""}); err != nil {
			return err
		}
	}
	for _, path := range report.Untracked {
		if err := cw.Write([]string{"untracked", path, ""}); err != nil {
			return err
		}
	}
	for _, move := range report.Moved {
		if err := cw.Write([]string{"moved", move.Found, "expected " + move.Expected}); err != nil {
			return err
		}
	}
	for _, hashErr := range report.Errors {
		if err := cw.Write([]string{"error", hashErr.RelPath, hashErr.Reason}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"summary", "checked=" + strconv.Itoa(report.Checked), "partial=" + strconv.FormatBool(report.Partial)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
