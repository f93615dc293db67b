package main

import (
	"time"

	"betlogic/fixtures"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn describes one column of CLI table output.
type tableColumn struct {
	header   string
	align    text.Align
	maxWidth int
	merge    bool
}

var fixtureColumns = []tableColumn{
	{header: "League", align: text.AlignLeft, maxWidth: 28, merge: true},
	{header: "Match", align: text.AlignLeft, maxWidth: 48},
	{header: "Status", align: text.AlignCenter},
	{header: "Kickoff (UTC)", align: text.AlignRight},
}

// renderFixtures prints fixtures grouped visually by league, for the day given.
func renderFixtures(day time.Time, list []fixtures.Fixture) string {
	rows := make([]table.Row, 0, len(list))
	for _, fx := range list {
		kickoff := "-"
		if !fx.Kickoff.IsZero() {
			kickoff = fx.Kickoff.UTC().Format("15:04")
		}
		rows = append(rows, table.Row{fx.League, fx.TeamsLabel, fx.MatchStatus, kickoff})
	}
	return renderTable("Fixtures "+day.Format("2006-01-02"), fixtureColumns, rows)
}

func renderTable(title string, columns []tableColumn, rows []table.Row) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Title.Align = text.AlignCenter
	if title != "" {
		tw.SetTitle(title)
	}

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align,
			AlignHeader: text.AlignLeft,
			WidthMax:    col.maxWidth,
			AutoMerge:   col.merge,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		tw.AppendRow(row)
	}
	if len(rows) == 0 {
		tw.AppendFooter(table.Row{"no fixtures"})
	}

	return tw.Render()
}
