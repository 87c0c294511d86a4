package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keepsake/internal/manifest"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Rewrite the JSONL manifest from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := manifest.Export(cmd.Context(), store, cfg.Paths.ManifestPath)
			if err != nil {
				return fmt.Errorf("export manifest: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", count, cfg.Paths.ManifestPath)
			return nil
		},
	}
}
