package frame

// MatchPick selects which right-side rows a left row keeps when its key
// matches more than one of them.
type MatchPick int

const (
	// MatchAll keeps every match, fanning the left row out.
	MatchAll MatchPick = iota
	// MatchFirst keeps the first match in right-table order.
	MatchFirst
	// MatchLast keeps the last match in right-table order.
	MatchLast
)

// Join is the result of a left-outer join.
type Join struct {
	// Table holds the left columns followed by the right columns. Its index
	// is a fresh 0..n-1 range; callers reassign it as needed.
	Table *Table

	// Origins maps every output row to the position of the left row it came
	// from. Without fan-out, Origins[i] == i.
	Origins []int

	// Matched and Unmatched count left rows with and without a match.
	Matched   int
	Unmatched int

	// FanOut counts the extra rows produced by left rows with multiple
	// matches. Zero means the output has exactly one row per left row.
	FanOut int
}

// LeftJoin performs a left-outer equi-join of t against right on a single
// column pair. Every left row is preserved; unmatched rows get Missing in
// all right columns.
func (t *Table) LeftJoin(right *Table, leftOn, rightOn string) (*Join, error) {
	rj := right.ColumnIndex(rightOn)
	if rj < 0 {
		return nil, missingColumn(rightOn, right.columns)
	}
	idx := NewKeyIndex(right.columnAt(rj).values)
	return t.LeftJoinIndex(right, idx, leftOn, MatchAll)
}

// LeftJoinIndex is LeftJoin with a prebuilt KeyIndex over the right key
// column. The index must have been built from right; it is read-only here,
// so one index can serve many concurrent joins.
func (t *Table) LeftJoinIndex(right *Table, rightIdx *KeyIndex, leftOn string, pick MatchPick) (*Join, error) {
	lj := t.ColumnIndex(leftOn)
	if lj < 0 {
		return nil, missingColumn(leftOn, t.columns)
	}
	if rightIdx.Len() != right.Len() {
		return nil, &LengthError{What: "join key index", Expected: right.Len(), Got: rightIdx.Len()}
	}

	columns := make([]string, 0, len(t.columns)+len(right.columns))
	columns = append(columns, t.columns...)
	columns = append(columns, right.columns...)

	rows := make([]Row, 0, len(t.rows))
	origins := make([]int, 0, len(t.rows))
	result := &Join{}

	for i, left := range t.rows {
		matches := rightIdx.Rows(left[lj])

		if len(matches) == 0 {
			rows = append(rows, combineRows(left, nil, len(right.columns)))
			origins = append(origins, i)
			result.Unmatched++
			continue
		}

		result.Matched++
		switch pick {
		case MatchFirst:
			matches = matches[:1]
		case MatchLast:
			matches = matches[len(matches)-1:]
		}

		for _, m := range matches {
			rows = append(rows, combineRows(left, right.rows[m], len(right.columns)))
			origins = append(origins, i)
		}
		result.FanOut += len(matches) - 1
	}

	result.Table = newTableOwned(columns, rows, RangeIndex(len(rows)))
	result.Origins = origins
	return result, nil
}

// combineRows concatenates a left row with a right row, or with width
// Missing cells when there is no right row.
func combineRows(left, right Row, width int) Row {
	joined := make(Row, 0, len(left)+width)
	joined = append(joined, left...)
	if right == nil {
		for k := 0; k < width; k++ {
			joined = append(joined, Missing)
		}
		return joined
	}
	return append(joined, right...)
}
