package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog summary counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read catalog stats: %w", err)
			}

			rows := [][2]string{
				countRow("Media", stats.Media),
				countRow("Photos", stats.Photos),
				countRow("Videos", stats.Videos),
				countRow("Tags", stats.Tags),
				countRow("Sources", stats.Sources),
				{"Archive size", humanize.IBytes(uint64(stats.TotalBytes))},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSummary("Metric", "Value", rows))
			return nil
		},
	}
}
