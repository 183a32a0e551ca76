package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/praetorian-inc/logsift/pkg/types"
)

// WriteTable renders every record of results as one table.
func WriteTable(w io.Writer, results []*types.ScanResult) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Line", "Rule", "Component", "Content"})

	total := 0
	for _, result := range results {
		if result.Empty() {
			continue
		}
		for _, rec := range result.Records {
			line := "-"
			if rec.Line > 0 {
				line = strconv.Itoa(rec.Line)
			}
			tbl.AppendRow(table.Row{result.Path, line, rec.RuleField(), rec.Component, rec.Content})
			total++
		}
	}
	tbl.AppendFooter(table.Row{"", "", "", "Total", total})

	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
