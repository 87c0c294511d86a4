package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"keepsake/internal/config"
	"keepsake/internal/reconcile"
)

// newManifestCommand hashes an arbitrary directory tree without touching the
// catalog. Useful for fingerprinting an offline backup so it can be diffed
// against the archive's manifest.
func newManifestCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:         "manifest <dir> <out.csv>",
		Short:       "Write a hash manifest of a directory tree",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			outPath, err := config.ExpandPath(args[1])
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			opts := reconcile.Options{
				Workers:  workers,
				OnResult: reconcile.ProgressCallback("hashing"),
			}
			stats, err := reconcile.BuildManifest(runCtx, root, outPath, opts)
			if err != nil {
				return fmt.Errorf("build manifest: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Hashed %d files (%d errors) into %s\n", stats.Files, stats.Errors, outPath)
			if stats.Errors > 0 {
				return fmt.Errorf("%d files could not be hashed", stats.Errors)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Hash pool width")
	return cmd
}
