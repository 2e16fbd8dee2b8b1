// Package codec reads and writes frame tables as CSV.
package codec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wbrown/janus-indexmatch/frame"
)

// ReadOptions controls CSV parsing.
type ReadOptions struct {
	// IndexColumn, when set, names a column whose cells become the index
	// labels instead of a column.
	IndexColumn string
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// RawStrings disables type inference; every non-empty cell stays a string.
	RawStrings bool
	// MissingToken, when set, is the only cell text read as frame.Missing;
	// empty cells are then read as "". Zero means empty cells are missing.
	MissingToken string
}

// WriteOptions controls CSV output.
type WriteOptions struct {
	// IncludeIndex writes the index labels as a leading column named IndexName.
	IncludeIndex bool
	IndexName    string
	// MissingToken is written for frame.Missing and nil cells. With the
	// default empty token an empty string value cannot be told apart from a
	// missing one on read.
	MissingToken string
}

// ReadCSV reads a table whose first record is the header.
//
// Cells are inferred in order: empty → frame.Missing, integer → int64,
// float → float64, true/false → bool, anything else → string. Numerals
// with a leading zero ("007", "-01") are codes and stay strings.
func ReadCSV(r io.Reader, opts ReadOptions) (*frame.Table, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	indexPos := -1
	if opts.IndexColumn != "" {
		for i, col := range header {
			if col == opts.IndexColumn {
				indexPos = i
				break
			}
		}
		if indexPos < 0 {
			return nil, &frame.ColumnError{Column: opts.IndexColumn, Available: header, Err: frame.ErrMissingColumn}
		}
	}

	columns := make([]string, 0, len(header))
	for i, col := range header {
		if i != indexPos {
			columns = append(columns, col)
		}
	}

	var rows []frame.Row
	var index []frame.Value
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}

		row := make(frame.Row, 0, len(columns))
		for i, cell := range record {
			v := parseCell(cell, opts)
			if i == indexPos {
				index = append(index, v)
				continue
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	if indexPos < 0 {
		return frame.NewTable(columns, rows)
	}
	return frame.NewTableWithIndex(columns, rows, index)
}

// ReadSeriesCSV reads one column of a CSV file as a lookup series.
// The index follows opts.IndexColumn, or 0..n-1 when unset.
func ReadSeriesCSV(r io.Reader, column string, opts ReadOptions) (frame.Series, error) {
	t, err := ReadCSV(r, opts)
	if err != nil {
		return frame.Series{}, err
	}
	return t.Column(column)
}

func parseCell(cell string, opts ReadOptions) frame.Value {
	if opts.MissingToken != "" {
		switch cell {
		case opts.MissingToken:
			return frame.Missing
		case "":
			return ""
		}
	}
	return ParseCell(cell, opts.RawStrings)
}

// ParseCell infers the value of a single CSV cell.
func ParseCell(cell string, raw bool) frame.Value {
	if cell == "" {
		return frame.Missing
	}
	if raw || zeroPadded(cell) {
		return cell
	}
	if i, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	switch strings.ToLower(cell) {
	case "true":
		return true
	case "false":
		return false
	}
	return cell
}

// zeroPadded reports whether cell is a numeral whose integer part has a
// leading zero followed by another digit.
func zeroPadded(cell string) bool {
	s := strings.TrimLeft(cell, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}

// WriteCSV writes t with a header record. Missing cells are written as
// opts.MissingToken; read the output back with the same token to keep
// empty strings distinct from missing values.
func WriteCSV(w io.Writer, t *frame.Table, opts WriteOptions) error {
	writer := csv.NewWriter(w)

	header := t.Columns()
	if opts.IncludeIndex {
		header = append([]string{opts.IndexName}, header...)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		record := make([]string, 0, len(header))
		if opts.IncludeIndex {
			record = append(record, formatCell(t.Label(i), opts.MissingToken))
		}
		for _, v := range row {
			record = append(record, formatCell(v, opts.MissingToken))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("csv row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCell(v frame.Value, missing string) string {
	if v == nil || frame.IsMissing(v) {
		return missing
	}
	return frame.FormatValue(v)
}
