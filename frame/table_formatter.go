package frame

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// TableFormatter provides utilities for formatting Tables as markdown
type TableFormatter struct {
	// MaxWidth is the maximum display width of a cell, in terminal columns;
	// 0 disables truncation
	MaxWidth int
	// TruncateString is the string to append when truncating
	TruncateString string
	// ShowIndex prepends the index labels as an unnamed first column
	ShowIndex bool
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
		ShowIndex:      true,
	}
}

// Format formats a Table as a markdown table
func (tf *TableFormatter) Format(t *Table) string {
	if t == nil {
		return "_Empty table_"
	}
	if t.IsEmpty() {
		return fmt.Sprintf("_Columns: %v_\n\n_No rows_", t.columns)
	}

	tableString := &strings.Builder{}

	width := len(t.columns)
	if tf.ShowIndex {
		width++
	}

	alignment := make([]tw.Align, width)
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	headers := make([]string, 0, width)
	if tf.ShowIndex {
		headers = append(headers, "")
	}
	headers = append(headers, t.columns...)
	table.Header(headers)

	for i, tuple := range t.rows {
		row := make([]string, 0, width)
		if tf.ShowIndex {
			row = append(row, tf.formatValue(t.index[i]))
		}
		for _, val := range tuple {
			row = append(row, tf.formatValue(val))
		}
		table.Append(row)
	}

	table.Render()

	tableString.WriteString(fmt.Sprintf("\n_%d rows_\n", t.Len()))

	return tableString.String()
}

func (tf *TableFormatter) formatValue(val Value) string {
	s := FormatValue(val)
	if tf.MaxWidth > 0 {
		s = runewidth.Truncate(s, tf.MaxWidth, tf.TruncateString)
	}
	return s
}

// PrintTable prints a table to stdout
func PrintTable(t *Table) {
	fmt.Println(NewTableFormatter().Format(t))
}
