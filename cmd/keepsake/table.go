package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderSummary renders a two-column label/value table with the value column
// right-aligned. Every keepsake table is a summary of counts, so the helper
// stays fixed at two columns rather than taking per-column configuration.
func renderSummary(labelHeader, valueHeader string, rows [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{labelHeader, valueHeader})
	for _, row := range rows {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func countRow(label string, count int) [2]string {
	return [2]string{label, strconv.Itoa(count)}
}
