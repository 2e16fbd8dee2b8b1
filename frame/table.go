// Package frame provides the in-memory tabular substrate used by lookups:
// series, tables with arbitrary index labels, projection, positional
// concatenation and a hash-based left-outer join.
package frame

import (
	"fmt"
)

// Row is one positional record of a table.
type Row []Value

// Table is an ordered collection of rows with named columns and an index.
// Column names may repeat (projection with duplicate names is allowed);
// name lookups resolve to the first occurrence.
//
// Tables are IMMUTABLE. All operations return new tables and never modify
// their receiver, so a table may be shared between goroutines.
type Table struct {
	columns []string
	rows    []Row
	index   []Value
}

// NewTable creates a table with the default 0..n-1 index.
func NewTable(columns []string, rows []Row) (*Table, error) {
	return NewTableWithIndex(columns, rows, RangeIndex(len(rows)))
}

// NewTableWithIndex creates a table with explicit index labels.
func NewTableWithIndex(columns []string, rows []Row, index []Value) (*Table, error) {
	if len(index) != len(rows) {
		return nil, &LengthError{What: "table index", Expected: len(rows), Got: len(index)}
	}

	copied := make([]Row, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, &LengthError{What: fmt.Sprintf("row %d width", i), Expected: len(columns), Got: len(row)}
		}
		copied[i] = append(Row(nil), row...)
	}

	return &Table{
		columns: append([]string(nil), columns...),
		rows:    copied,
		index:   append([]Value(nil), index...),
	}, nil
}

// MustTable is NewTable that panics on error, for fixtures and examples.
func MustTable(columns []string, rows ...Row) *Table {
	t, err := NewTable(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// FromSeries wraps a series as a one-column table named after the series,
// keeping its index.
func FromSeries(s Series) *Table {
	rows := make([]Row, s.Len())
	for i, v := range s.values {
		rows[i] = Row{v}
	}
	return &Table{
		columns: []string{s.name},
		rows:    rows,
		index:   s.Index(),
	}
}

// FromRecords builds a table from maps keyed by column name.
// Columns absent from a record are filled with Missing.
func FromRecords(columns []string, records []map[string]Value) *Table {
	rows := make([]Row, len(records))
	for i, rec := range records {
		row := make(Row, len(columns))
		for j, col := range columns {
			v, ok := rec[col]
			if !ok {
				v = Missing
			}
			row[j] = v
		}
		rows[i] = row
	}
	return &Table{
		columns: append([]string(nil), columns...),
		rows:    rows,
		index:   RangeIndex(len(rows)),
	}
}

// newTableOwned wraps already-copied slices without copying again.
func newTableOwned(columns []string, rows []Row, index []Value) *Table {
	return &Table{columns: columns, rows: rows, index: index}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// IsEmpty returns true if the table has no rows.
func (t *Table) IsEmpty() bool { return len(t.rows) == 0 }

// Index returns a copy of the row index labels.
func (t *Table) Index() []Value { return append([]Value(nil), t.index...) }

// Label returns the index label of row i.
func (t *Table) Label(i int) Value { return t.index[i] }

// Row returns a copy of row i.
func (t *Table) Row(i int) Row { return append(Row(nil), t.rows[i]...) }

// ColumnIndex returns the position of the first column with the given name,
// or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Value returns the cell at row i in the named column.
func (t *Table) Value(i int, column string) (Value, error) {
	j := t.ColumnIndex(column)
	if j < 0 {
		return nil, missingColumn(column, t.columns)
	}
	return t.rows[i][j], nil
}

// Column returns the named column as a series carrying the table's index.
func (t *Table) Column(name string) (Series, error) {
	j := t.ColumnIndex(name)
	if j < 0 {
		return Series{}, missingColumn(name, t.columns)
	}
	return t.columnAt(j), nil
}

func (t *Table) columnAt(j int) Series {
	values := make([]Value, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[j]
	}
	return Series{name: t.columns[j], values: values, index: t.Index()}
}

// Select returns a table with only the named columns, in the given order.
// A name may be given more than once. Returns ErrMissingColumn if any
// requested column doesn't exist.
func (t *Table) Select(columns ...string) (*Table, error) {
	positions := make([]int, len(columns))
	for i, col := range columns {
		j := t.ColumnIndex(col)
		if j < 0 {
			return nil, missingColumn(col, t.columns)
		}
		positions[i] = j
	}
	return t.selectAt(positions), nil
}

func (t *Table) selectAt(positions []int) *Table {
	columns := make([]string, len(positions))
	for i, p := range positions {
		columns[i] = t.columns[p]
	}

	rows := make([]Row, len(t.rows))
	for r, row := range t.rows {
		projected := make(Row, len(positions))
		for i, p := range positions {
			projected[i] = row[p]
		}
		rows[r] = projected
	}

	return newTableOwned(columns, rows, t.Index())
}

// Drop removes every column carrying one of the given names.
// Returns ErrMissingColumn if a name matches no column.
func (t *Table) Drop(columns ...string) (*Table, error) {
	drop := make(map[string]bool, len(columns))
	for _, col := range columns {
		if !t.HasColumn(col) {
			return nil, missingColumn(col, t.columns)
		}
		drop[col] = true
	}

	var keep []int
	for j, col := range t.columns {
		if !drop[col] {
			keep = append(keep, j)
		}
	}
	return t.selectAt(keep), nil
}

// DropAt removes the columns at the given positions. Use it when names are
// ambiguous, e.g. a key column that shares its name with a payload column.
func (t *Table) DropAt(positions ...int) (*Table, error) {
	drop := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(t.columns) {
			return nil, fmt.Errorf("column position %d out of range [0, %d)", p, len(t.columns))
		}
		drop[p] = true
	}

	keep := make([]int, 0, len(t.columns))
	for j := range t.columns {
		if !drop[j] {
			keep = append(keep, j)
		}
	}
	return t.selectAt(keep), nil
}

// WithIndex returns the same rows under new index labels.
// The label count must equal the row count.
func (t *Table) WithIndex(labels []Value) (*Table, error) {
	if len(labels) != len(t.rows) {
		return nil, &LengthError{What: "index labels", Expected: len(t.rows), Got: len(labels)}
	}
	return newTableOwned(t.columns, t.rows, append([]Value(nil), labels...)), nil
}

// ConcatColumns places tables side by side, matching rows by position.
// All tables must have the same row count; the result takes the first
// table's index.
func ConcatColumns(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return newTableOwned(nil, nil, nil), nil
	}

	n := tables[0].Len()
	var columns []string
	for i, tbl := range tables {
		if tbl.Len() != n {
			return nil, &LengthError{What: fmt.Sprintf("table %d rows", i), Expected: n, Got: tbl.Len()}
		}
		columns = append(columns, tbl.columns...)
	}

	rows := make([]Row, n)
	for r := range rows {
		row := make(Row, 0, len(columns))
		for _, tbl := range tables {
			row = append(row, tbl.rows[r]...)
		}
		rows[r] = row
	}

	return newTableOwned(columns, rows, tables[0].Index()), nil
}

// ConcatRows stacks tables vertically, keeping each table's index labels.
// All tables must have identical columns.
func ConcatRows(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return newTableOwned(nil, nil, nil), nil
	}

	columns := tables[0].columns
	total := 0
	for i, tbl := range tables {
		if !sameColumns(columns, tbl.columns) {
			return nil, fmt.Errorf("%w: table %d has columns %v, expected %v", ErrSchemaMismatch, i, tbl.columns, columns)
		}
		total += tbl.Len()
	}

	rows := make([]Row, 0, total)
	index := make([]Value, 0, total)
	for _, tbl := range tables {
		rows = append(rows, tbl.rows...)
		index = append(index, tbl.index...)
	}

	return newTableOwned(append([]string(nil), columns...), rows, index), nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Equal reports whether two tables have the same columns, index and cells.
// Missing equals Missing and NaN equals NaN here, unlike join-key equality.
func Equal(a, b *Table) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !sameColumns(a.columns, b.columns) || len(a.rows) != len(b.rows) {
		return false
	}
	for i := range a.rows {
		if !SameValue(a.index[i], b.index[i]) {
			return false
		}
		for j := range a.rows[i] {
			if !SameValue(a.rows[i][j], b.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// SameValue is cell identity: like ValuesEqual, but Missing matches
// Missing and NaN matches NaN.
func SameValue(a, b Value) bool {
	if IsMissing(a) || IsMissing(b) {
		return IsMissing(a) && IsMissing(b)
	}
	if isNaN(a) || isNaN(b) {
		return isNaN(a) && isNaN(b)
	}
	return ValuesEqual(a, b)
}

// String returns a compact description for annotations and logging.
func (t *Table) String() string {
	return fmt.Sprintf("Table(%v, %d rows)", t.columns, len(t.rows))
}

// Table returns a formatted markdown table representation.
func (t *Table) Table() string {
	return NewTableFormatter().Format(t)
}
