package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/meigma/vidcache"
)

// renderEntries formats cache entries, oldest first, with a size total.
func renderEntries(entries []vidcache.Entry) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"ID", "Size", "Created", "Age"})

	var total int64
	for _, entry := range entries {
		total += entry.Size
		tw.AppendRow(table.Row{
			entry.ID,
			humanize.IBytes(uint64(entry.Size)),
			entry.CreatedAt.Format(time.RFC3339),
			humanize.Time(entry.CreatedAt),
		})
	}
	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d entries", len(entries)),
		humanize.IBytes(uint64(total)),
		"",
		"",
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Size", Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

// writePlainEntries prints one tab-separated line per entry: id, bytes, created.
func writePlainEntries(w io.Writer, entries []vidcache.Entry) {
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", entry.ID, entry.Size, entry.CreatedAt.Format(time.RFC3339))
	}
}

// isTerminal reports whether writer is an interactive terminal.
func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
