package indexmatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-indexmatch/frame"
	"github.com/wbrown/janus-indexmatch/frame/annotations"
)

func lookupValues(t *testing.T) frame.Series {
	t.Helper()
	s, err := frame.NewSeriesWithIndex("city_id", []frame.Value{10, 20, 30}, []frame.Value{"a", "b", "c"})
	require.NoError(t, err)
	return s
}

func reference() *frame.Table {
	return frame.MustTable([]string{"id", "name", "country"},
		frame.Row{int64(10), "X", "NO"},
		frame.Row{int64(30), "Z", "PE"},
	)
}

func TestLookupBasic(t *testing.T) {
	values := lookupValues(t)

	result, err := Lookup(values, reference(), []string{"name"}, On("id"))
	require.NoError(t, err)

	assert.Equal(t, []string{"name"}, result.Columns())
	assert.Equal(t, []frame.Value{"a", "b", "c"}, result.Index())
	assert.Equal(t, frame.Row{"X"}, result.Row(0))
	assert.True(t, frame.IsMissing(result.Row(1)[0]))
	assert.Equal(t, frame.Row{"Z"}, result.Row(2))
}

func TestLookupConcatMatches(t *testing.T) {
	values := lookupValues(t)

	result, err := Lookup(values, reference(), []string{"name"}, On("id"), WithConcatMatches(true))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, result.Columns())
	assert.Equal(t, []frame.Value{"a", "b", "c"}, result.Index())

	row := result.Row(1)
	assert.Equal(t, 20, row[0])
	assert.True(t, frame.IsMissing(row[1]))
}

func TestLookupEmptyValues(t *testing.T) {
	empty := frame.NewSeries("id", nil)

	result, err := Lookup(empty, reference(), []string{"name", "country"}, On("id"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Len())
	assert.Equal(t, []string{"name", "country"}, result.Columns())

	result, err = Lookup(empty, reference(), []string{"name"}, On("id"), WithConcatMatches(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, result.Columns())
}

func TestLookupMissingColumn(t *testing.T) {
	values := lookupValues(t)

	tests := []struct {
		name       string
		returnCols []string
		key        JoinKey
		column     string
	}{
		{"return column", []string{"nonexistent"}, On("id"), "nonexistent"},
		{"right key", []string{"name"}, JoinKey{Left: "id", Right: "city"}, "city"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lookup(values, reference(), tt.returnCols, tt.key)
			require.Error(t, err)
			assert.True(t, errors.Is(err, frame.ErrMissingColumn))

			var cerr *frame.ColumnError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.column, cerr.Column)
		})
	}
}

func TestLookupInvalidKeys(t *testing.T) {
	values := lookupValues(t)

	_, err := Lookup(values, reference(), []string{"name"}, JoinKey{Left: "", Right: "id"})
	assert.True(t, errors.Is(err, ErrInvalidJoinKey))

	_, err = Lookup(values, reference(), []string{"name"}, JoinKey{Left: "name", Right: "id"})
	assert.True(t, errors.Is(err, frame.ErrColumnCollision))

	_, err = Lookup(values, nil, []string{"name"}, On("id"))
	assert.True(t, errors.Is(err, ErrNilTable))
}

func TestLookupKeyColumnsDoNotLeak(t *testing.T) {
	values := lookupValues(t)

	result, err := Lookup(values, reference(), []string{"country", "name"}, JoinKey{Left: "lookup", Right: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "name"}, result.Columns())

	// Explicitly requesting the right key keeps it.
	result, err = Lookup(values, reference(), []string{"id", "name"}, JoinKey{Left: "lookup", Right: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, result.Columns())
	assert.Equal(t, frame.Row{int64(30), "Z"}, result.Row(2))
}

func TestLookupDuplicateReturnColumns(t *testing.T) {
	result, err := Lookup(lookupValues(t), reference(), []string{"name", "name"}, On("id"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "name"}, result.Columns())
	assert.Equal(t, frame.Row{"X", "X"}, result.Row(0))
}

func TestLookupPreservesArbitraryIndex(t *testing.T) {
	// Repeated, unordered labels and repeated lookup values.
	values, err := frame.NewSeriesWithIndex("id",
		[]frame.Value{30, 10, 30, 99},
		[]frame.Value{7, 3, 7, -1})
	require.NoError(t, err)

	result, err := Lookup(values, reference(), []string{"name"}, On("id"))
	require.NoError(t, err)

	assert.Equal(t, values.Len(), result.Len())
	assert.Equal(t, values.Index(), result.Index())
	assert.Equal(t, frame.Row{"Z"}, result.Row(0))
	assert.Equal(t, frame.Row{"X"}, result.Row(1))
	assert.Equal(t, frame.Row{"Z"}, result.Row(2))
	assert.True(t, frame.IsMissing(result.Row(3)[0]))
}

func TestLookupDoesNotMutateInputs(t *testing.T) {
	values := lookupValues(t)
	ref := reference()

	_, err := Lookup(values, ref, []string{"name"}, On("id"), WithConcatMatches(true))
	require.NoError(t, err)

	assert.Equal(t, "city_id", values.Name())
	assert.Equal(t, []frame.Value{"a", "b", "c"}, values.Index())
	assert.Equal(t, []string{"id", "name", "country"}, ref.Columns())
	assert.Equal(t, []frame.Value{0, 1}, ref.Index())
}

func TestLookupFanOut(t *testing.T) {
	values, err := frame.NewSeriesWithIndex("id", []frame.Value{10, 20}, []frame.Value{"a", "b"})
	require.NoError(t, err)
	dupes := frame.MustTable([]string{"id", "name"},
		frame.Row{10, "first"},
		frame.Row{10, "second"},
		frame.Row{20, "only"},
	)

	t.Run("RejectByDefault", func(t *testing.T) {
		_, err := Lookup(values, dupes, []string{"name"}, On("id"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAmbiguousMatch))

		var aerr *AmbiguousMatchError
		require.True(t, errors.As(err, &aerr))
		assert.Equal(t, 10, aerr.Value)
		assert.Equal(t, "a", aerr.Label)
		assert.Equal(t, 2, aerr.Matches)
		assert.Equal(t, "id", aerr.Column)
	})

	t.Run("First", func(t *testing.T) {
		result, err := Lookup(values, dupes, []string{"name"}, On("id"), WithFanOut(FanOutFirst))
		require.NoError(t, err)
		assert.Equal(t, []frame.Value{"a", "b"}, result.Index())
		assert.Equal(t, frame.Row{"first"}, result.Row(0))
	})

	t.Run("Last", func(t *testing.T) {
		result, err := Lookup(values, dupes, []string{"name"}, On("id"), WithFanOut(FanOutLast))
		require.NoError(t, err)
		assert.Equal(t, frame.Row{"second"}, result.Row(0))
		assert.Equal(t, frame.Row{"only"}, result.Row(1))
	})

	t.Run("Expand", func(t *testing.T) {
		result, err := Lookup(values, dupes, []string{"name"}, On("id"),
			WithFanOut(FanOutExpand), WithConcatMatches(true))
		require.NoError(t, err)
		assert.Equal(t, 3, result.Len())
		assert.Equal(t, []frame.Value{"a", "a", "b"}, result.Index())
		assert.Equal(t, frame.Row{10, "first"}, result.Row(0))
		assert.Equal(t, frame.Row{10, "second"}, result.Row(1))
		assert.Equal(t, frame.Row{20, "only"}, result.Row(2))
	})

	t.Run("UniqueKeysNeverFanOut", func(t *testing.T) {
		result, err := Lookup(values, reference(), []string{"name"}, On("id"), WithFanOut(FanOutExpand))
		require.NoError(t, err)
		assert.Equal(t, values.Index(), result.Index())
	})
}

func TestMatcherReuse(t *testing.T) {
	m, err := NewMatcher(reference(), []string{"name"}, On("id"))
	require.NoError(t, err)

	assert.True(t, m.Contains(10))
	assert.True(t, m.Contains(float64(30)))
	assert.False(t, m.Contains(20))
	assert.Equal(t, 1, m.MatchCount(int64(10)))
	assert.True(t, m.Unique())
	assert.Equal(t, On("id"), m.Key())
	assert.Equal(t, []string{"name"}, m.ReturnColumns())

	for _, v := range []frame.Value{10, 30} {
		result, err := m.Lookup(frame.NewSeries("id", []frame.Value{v}))
		require.NoError(t, err)
		assert.False(t, frame.IsMissing(result.Row(0)[0]))
	}
}

func TestLookupMissingKeysNeverMatch(t *testing.T) {
	ref := frame.MustTable([]string{"id", "name"},
		frame.Row{frame.Missing, "ghost"},
		frame.Row{1, "one"},
	)
	values := frame.NewSeries("id", []frame.Value{frame.Missing, 1})

	result, err := Lookup(values, ref, []string{"name"}, On("id"))
	require.NoError(t, err)
	assert.True(t, frame.IsMissing(result.Row(0)[0]))
	assert.Equal(t, frame.Row{"one"}, result.Row(1))
}

func TestLookupAnnotations(t *testing.T) {
	var events []annotations.Event
	handler := func(e annotations.Event) { events = append(events, e) }

	_, err := Lookup(lookupValues(t), reference(), []string{"name"}, On("id"), WithHandler(handler))
	require.NoError(t, err)

	var names []string
	for _, e := range events {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{
		annotations.LookupIndexed,
		annotations.LookupInvoked,
		annotations.JoinLeftHash,
		annotations.LookupReindexed,
		annotations.LookupComplete,
	}, names)

	join := events[2]
	assert.Equal(t, 2, join.Data["matched"])
	assert.Equal(t, 1, join.Data["unmatched"])

	events = nil
	_, err = Lookup(lookupValues(t), reference(), []string{"nope"}, On("id"), WithHandler(handler))
	require.Error(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, annotations.ErrorLookup, events[0].Name)
}

func TestParseFanOutPolicy(t *testing.T) {
	for _, p := range []FanOutPolicy{FanOutReject, FanOutFirst, FanOutLast, FanOutExpand} {
		parsed, err := ParseFanOutPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	parsed, err := ParseFanOutPolicy("EXPAND")
	require.NoError(t, err)
	assert.Equal(t, FanOutExpand, parsed)

	_, err = ParseFanOutPolicy("merge")
	assert.Error(t, err)
}
