package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keepsake/internal/census"
	"keepsake/internal/config"
)

func newCensusCommand() *cobra.Command {
	var includeHidden bool
	var showBundles bool

	cmd := &cobra.Command{
		Use:         "census <dir>",
		Short:       "Count files by extension under a directory",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}

			result, err := census.Run(root, census.Options{
				IncludeHidden: includeHidden,
				TrackBundles:  showBundles,
			})
			if err != nil {
				return fmt.Errorf("census: %w", err)
			}

			rows := make([][2]string, 0, len(result.Counts))
			for _, entry := range result.Sorted() {
				rows = append(rows, countRow(entry.Extension, entry.Count))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSummary("Extension", "Files", rows))
			fmt.Fprintf(out, "Total: %d files\n", result.Total())

			if showBundles && len(result.Bundles) > 0 {
				fmt.Fprintln(out, "\nLibrary bundles found:")
				for _, bundle := range result.Bundles {
					fmt.Fprintf(out, "  %s\n", bundle)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Count dot-prefixed files and directories")
	cmd.Flags().BoolVar(&showBundles, "show-bundles", false, "List macOS library bundles found")
	return cmd
}
