// Package indexmatch implements INDEX-MATCH style lookups: the values of a
// series are searched in one column of a reference table and the matching
// rows' return columns come back aligned to the series' own index.
package indexmatch

import (
	"fmt"
	"time"

	"github.com/wbrown/janus-indexmatch/frame"
	"github.com/wbrown/janus-indexmatch/frame/annotations"
)

// JoinKey names the single column pair a lookup joins on.
//
// Left labels the lookup values: it names the intermediate one-column table
// and, with ConcatMatches, the leading output column. Right is the column of
// the reference table that is searched.
type JoinKey struct {
	Left  string
	Right string
}

// On is shorthand for a JoinKey whose sides share a name.
func On(column string) JoinKey {
	return JoinKey{Left: column, Right: column}
}

func (k JoinKey) String() string {
	return fmt.Sprintf("%s=%s", k.Left, k.Right)
}

// Matcher holds a reference table projected to its key and return columns,
// together with a hash index over the key column. Building it once and
// calling Lookup many times avoids rebuilding the index per call.
//
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	key        JoinKey
	returnCols []string
	table      *frame.Table
	index      *frame.KeyIndex
	opts       Options
}

// NewMatcher validates the column names against table and indexes it.
func NewMatcher(table *frame.Table, returnCols []string, key JoinKey, opts ...Option) (*Matcher, error) {
	o := buildOptions(opts)
	collector := annotations.NewCollector(o.Handler)
	return newMatcher(table, returnCols, key, o, collector)
}

func newMatcher(table *frame.Table, returnCols []string, key JoinKey, o Options, collector *annotations.Collector) (*Matcher, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	if key.Left == "" || key.Right == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidJoinKey, key.String())
	}
	for _, col := range returnCols {
		if col == key.Left {
			return nil, &frame.ColumnError{Column: col, Err: frame.ErrColumnCollision}
		}
	}

	start := time.Now()

	subset := make([]string, 0, len(returnCols)+1)
	subset = append(subset, key.Right)
	subset = append(subset, returnCols...)

	projected, err := table.Select(subset...)
	if err != nil {
		return nil, fmt.Errorf("reference table: %w", err)
	}

	keyCol, err := projected.Column(key.Right)
	if err != nil {
		return nil, fmt.Errorf("reference table: %w", err)
	}
	index := frame.NewKeyIndex(keyCol.Values())

	if collector.Enabled() {
		collector.AddTiming(annotations.LookupIndexed, start, map[string]interface{}{
			"table.size":    projected.Len(),
			"keys.distinct": index.DistinctKeys(),
		})
	}

	return &Matcher{
		key:        key,
		returnCols: append([]string(nil), returnCols...),
		table:      projected,
		index:      index,
		opts:       o,
	}, nil
}

// Key returns the join key.
func (m *Matcher) Key() JoinKey { return m.key }

// ReturnColumns returns the projected column names.
func (m *Matcher) ReturnColumns() []string { return append([]string(nil), m.returnCols...) }

// Contains reports whether v occurs in the reference key column.
func (m *Matcher) Contains(v frame.Value) bool { return m.index.Contains(v) }

// MatchCount returns how many reference rows hold v.
func (m *Matcher) MatchCount(v frame.Value) int { return len(m.index.Rows(v)) }

// Unique reports whether every reference key occurs at most once, i.e.
// whether no lookup against this Matcher can fan out.
func (m *Matcher) Unique() bool { return m.index.Unique() }

// Lookup searches every value of values and returns the matches.
//
// The result's index equals values' index (same labels, same order) and its
// columns are the return columns, preceded by the lookup values when
// ConcatMatches is set. Values that are not found yield frame.Missing in
// every return column. The inputs are never modified.
func (m *Matcher) Lookup(values frame.Series) (*frame.Table, error) {
	return m.lookup(values, annotations.NewCollector(m.opts.Handler))
}

func (m *Matcher) lookup(values frame.Series, collector *annotations.Collector) (*frame.Table, error) {
	start := time.Now()
	if collector.Enabled() {
		collector.Add(annotations.Event{
			Name:  annotations.LookupInvoked,
			Start: start,
			End:   start,
			Data: map[string]interface{}{
				"values.size": values.Len(),
				"table.size":  m.table.Len(),
				"key.left":    m.key.Left,
				"key.right":   m.key.Right,
			},
		})
	}

	result, err := m.match(values, collector)

	if collector.Enabled() {
		data := map[string]interface{}{"success": err == nil}
		if err != nil {
			data["error"] = err
		} else {
			data["result.size"] = result.Len()
			data["result.width"] = result.Width()
		}
		collector.AddTiming(annotations.LookupComplete, start, data)
	}

	return result, err
}

func (m *Matcher) match(values frame.Series, collector *annotations.Collector) (*frame.Table, error) {
	// Wrap the lookup values as a one-column table named after the left key
	lookup := values.Rename(m.key.Left)
	left := frame.FromSeries(lookup)

	start := time.Now()
	join, err := left.LeftJoinIndex(m.table, m.index, m.key.Left, m.opts.FanOut.pick())
	if err != nil {
		return nil, fmt.Errorf("left join on %s: %w", m.key, err)
	}

	if collector.Enabled() {
		collector.AddTiming(annotations.JoinLeftHash, start, map[string]interface{}{
			"left.size":   left.Len(),
			"right.size":  m.table.Len(),
			"result.size": join.Table.Len(),
			"matched":     join.Matched,
			"unmatched":   join.Unmatched,
			"fanout":      join.FanOut,
		})
	}

	if join.FanOut > 0 && m.opts.FanOut == FanOutReject {
		return nil, m.ambiguity(values, join.Origins)
	}

	// Columns are [left key, right key, returnCols...]; drop the two keys
	// by position so a return column sharing the right key's name survives.
	matches, err := join.Table.DropAt(0, 1)
	if err != nil {
		return nil, err
	}

	// The join produced a fresh range index; put back the lookup labels.
	labels := values.Index()
	lookupCol := left
	if join.FanOut > 0 {
		labels = make([]frame.Value, len(join.Origins))
		expanded := make([]frame.Value, len(join.Origins))
		for i, origin := range join.Origins {
			labels[i] = values.Label(origin)
			expanded[i] = values.At(origin)
		}
		col, err := frame.NewSeriesWithIndex(m.key.Left, expanded, labels)
		if err != nil {
			return nil, err
		}
		lookupCol = frame.FromSeries(col)
	}

	matches, err = matches.WithIndex(labels)
	if err != nil {
		return nil, fmt.Errorf("reindex lookup result: %w", err)
	}

	if collector.Enabled() {
		collector.AddTiming(annotations.LookupReindexed, start, map[string]interface{}{
			"policy": m.opts.FanOut.String(),
		})
	}

	if !m.opts.ConcatMatches {
		return matches, nil
	}
	return frame.ConcatColumns(lookupCol, matches)
}

// ambiguity builds the error for the first lookup row that fanned out.
func (m *Matcher) ambiguity(values frame.Series, origins []int) error {
	for i := 1; i < len(origins); i++ {
		if origins[i] == origins[i-1] {
			pos := origins[i]
			v := values.At(pos)
			return &AmbiguousMatchError{
				Value:   v,
				Label:   values.Label(pos),
				Column:  m.key.Right,
				Matches: m.MatchCount(v),
			}
		}
	}
	return ErrAmbiguousMatch
}

// Lookup searches values in the key.Right column of table and returns the
// returnCols of the matching rows, indexed like values. See Matcher.Lookup.
func Lookup(values frame.Series, table *frame.Table, returnCols []string, key JoinKey, opts ...Option) (*frame.Table, error) {
	o := buildOptions(opts)
	collector := annotations.NewCollector(o.Handler)

	m, err := newMatcher(table, returnCols, key, o, collector)
	if err != nil {
		if collector.Enabled() {
			collector.Add(annotations.Event{
				Name: annotations.ErrorLookup,
				Data: map[string]interface{}{"error": err},
			})
		}
		return nil, err
	}
	return m.lookup(values, collector)
}
