package frame

// Series is a named, ordered sequence of values where every element carries
// an index label. Labels are arbitrary values: they may repeat, be unordered
// or non-contiguous.
//
// Series are immutable; constructors copy their inputs.
type Series struct {
	name   string
	values []Value
	index  []Value
}

// NewSeries creates a series labelled 0..n-1.
func NewSeries(name string, values []Value) Series {
	return Series{
		name:   name,
		values: append([]Value(nil), values...),
		index:  RangeIndex(len(values)),
	}
}

// NewSeriesWithIndex creates a series with explicit labels.
func NewSeriesWithIndex(name string, values []Value, index []Value) (Series, error) {
	if len(index) != len(values) {
		return Series{}, &LengthError{What: "series index", Expected: len(values), Got: len(index)}
	}
	return Series{
		name:   name,
		values: append([]Value(nil), values...),
		index:  append([]Value(nil), index...),
	}, nil
}

// RangeIndex returns the default labels 0..n-1.
func RangeIndex(n int) []Value {
	index := make([]Value, n)
	for i := range index {
		index[i] = i
	}
	return index
}

// Name returns the series name.
func (s Series) Name() string { return s.name }

// Len returns the number of elements.
func (s Series) Len() int { return len(s.values) }

// At returns the value at position i.
func (s Series) At(i int) Value { return s.values[i] }

// Label returns the index label at position i.
func (s Series) Label(i int) Value { return s.index[i] }

// Values returns a copy of the values.
func (s Series) Values() []Value { return append([]Value(nil), s.values...) }

// Index returns a copy of the index labels.
func (s Series) Index() []Value { return append([]Value(nil), s.index...) }

// Rename returns the same series under a different name.
func (s Series) Rename(name string) Series {
	s.name = name
	return s
}

// Slice returns positions [start, end) as a new series, keeping labels.
func (s Series) Slice(start, end int) Series {
	return Series{
		name:   s.name,
		values: append([]Value(nil), s.values[start:end]...),
		index:  append([]Value(nil), s.index[start:end]...),
	}
}
