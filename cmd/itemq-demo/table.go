package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, styled bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderSummary prints one row per settled item, ordered by id, followed by
// the totals.
func renderSummary(sum summary, styled bool) string {
	items := append([]itemRow(nil), sum.rows...)
	sort.Slice(items, func(i, j int) bool { return items[i].id < items[j].id })

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		errText := ""
		if it.err != nil {
			errText = it.err.Error()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", it.id),
			fmt.Sprintf("job-%d", it.job.N),
			it.job.Delay.Round(time.Millisecond).String(),
			it.status,
			errText,
		})
	}

	var b strings.Builder
	if len(rows) > 0 {
		b.WriteString(renderTable(
			[]string{"ID", "ITEM", "DELAY", "STATUS", "ERROR"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			styled,
		))
		b.WriteString("\n")
	}

	result := "ok"
	if sum.err != nil {
		result = sum.err.Error()
	}
	b.WriteString(renderTable(
		[]string{"SUCCEEDED", "FAILED", "PAUSES", "OVERDUE", "TOTAL TIME", "RESULT"},
		[][]string{{
			fmt.Sprintf("%d", sum.succeeded),
			fmt.Sprintf("%d", sum.failed),
			fmt.Sprintf("%d", sum.pauses),
			fmt.Sprintf("%d", sum.overdue),
			sum.total.Round(time.Millisecond).String(),
			result,
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
		styled,
	))
	return b.String()
}
