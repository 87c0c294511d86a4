package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"keepsake/internal/ingest"
	"keepsake/internal/metadata"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var applyTags string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest source directories into the archive",
		Long: "Walks the configured source directories, deduplicates files by content " +
			"fingerprint, places new files under the archive's year/month layout, and " +
			"refreshes the manifest. With --apply-tags, replaces folder-derived tags " +
			"from an edited review CSV instead of ingesting.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			session := ingest.NewSession(cfg, logger, ingest.WithExifDate(metadata.ExifDate))

			if path := strings.TrimSpace(applyTags); path != "" {
				if err := session.ApplyTags(runCtx, path); err != nil {
					return fmt.Errorf("apply tags: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Tags applied and manifest refreshed")
				return nil
			}

			stats, err := session.Run(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported:   %d\n", stats.Imported)
			fmt.Fprintf(out, "Duplicates: %d\n", stats.Duplicates)
			fmt.Fprintf(out, "Tags added: %d\n", stats.TagsAdded)
			fmt.Fprintf(out, "Errors:     %d\n", stats.Errors)
			for _, detail := range stats.ErrorDetails {
				fmt.Fprintf(out, "  %s\n", detail)
			}
			if stats.Errors > 0 {
				return fmt.Errorf("ingest completed with %d errors", stats.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&applyTags, "apply-tags", "", "Replace folder tags from an edited review CSV")
	return cmd
}
