package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// newTable returns a borderless table writer in the style of the other
// listings.
func newTable(header ...any) table.Writer {
	tableWriter := table.NewWriter()
	tableWriter.SetStyle(table.StyleLight)
	tableWriter.Style().Options.SeparateColumns = false
	tableWriter.Style().Options.DrawBorder = false
	tableWriter.Style().Options.SeparateHeader = false
	tableWriter.AppendHeader(table.Row(header))
	return tableWriter
}
