package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-indexmatch/frame"
)

const citiesCSV = `id,name,population,capital
10,Oslo,709037,true
20,Lima,,false
30,Pune,3.12e6,false
`

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(citiesCSV), ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "population", "capital"}, tbl.Columns())
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, frame.Row{int64(10), "Oslo", int64(709037), true}, tbl.Row(0))
	assert.True(t, frame.IsMissing(tbl.Row(1)[2]))
	assert.Equal(t, 3.12e6, tbl.Row(2)[2])
}

func TestReadCSVIndexColumn(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(citiesCSV), ReadOptions{IndexColumn: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "population", "capital"}, tbl.Columns())
	assert.Equal(t, []frame.Value{"Oslo", "Lima", "Pune"}, tbl.Index())

	_, err = ReadCSV(strings.NewReader(citiesCSV), ReadOptions{IndexColumn: "nope"})
	assert.True(t, errors.Is(err, frame.ErrMissingColumn))
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), ReadOptions{})
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"), ReadOptions{})
	assert.Error(t, err)
}

func TestReadSeriesCSV(t *testing.T) {
	s, err := ReadSeriesCSV(strings.NewReader("label;code\nx;007\ny;AB\n"), "code",
		ReadOptions{IndexColumn: "label", Comma: ';', RawStrings: true})
	require.NoError(t, err)
	assert.Equal(t, "code", s.Name())
	assert.Equal(t, []frame.Value{"007", "AB"}, s.Values())
	assert.Equal(t, []frame.Value{"x", "y"}, s.Index())
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		in   string
		want frame.Value
	}{
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"2.5", 2.5},
		{"TRUE", true},
		{"false", false},
		{"Oslo", "Oslo"},
		{"0", int64(0)},
		{"0.25", 0.25},
		{"-0.5", -0.5},
		{"007", "007"},
		{"02134", "02134"},
		{"-01", "-01"},
		{"00.5", "00.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCell(tt.in, false), tt.in)
	}
	assert.True(t, frame.IsMissing(ParseCell("", false)))
	assert.Equal(t, "42", ParseCell("42", true))
}

func TestReadCSVKeepsZeroPaddedCodes(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("zip,n\n02134,7\n7,007\n"), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, frame.Row{"02134", int64(7)}, tbl.Row(0))
	assert.Equal(t, frame.Row{int64(7), "007"}, tbl.Row(1))
}

func TestWriteCSV(t *testing.T) {
	tbl, err := frame.NewTableWithIndex([]string{"name", "pop"},
		[]frame.Row{{"Oslo", int64(709037)}, {frame.Missing, 1.5}},
		[]frame.Value{"a", "b"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl, WriteOptions{IncludeIndex: true, IndexName: "label"}))
	assert.Equal(t, "label,name,pop\na,Oslo,709037\nb,,1.5\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, tbl, WriteOptions{}))
	assert.Equal(t, "name,pop\nOslo,709037\n,1.5\n", buf.String())
}

func TestMissingTokenRoundTrip(t *testing.T) {
	tbl := frame.MustTable([]string{"name", "note"},
		frame.Row{"Oslo", ""},
		frame.Row{frame.Missing, "capital"},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl, WriteOptions{MissingToken: "NA"}))
	assert.Equal(t, "name,note\nOslo,\nNA,capital\n", buf.String())

	back, err := ReadCSV(strings.NewReader(buf.String()), ReadOptions{MissingToken: "NA"})
	require.NoError(t, err)
	assert.Equal(t, "", back.Row(0)[1])
	assert.True(t, frame.IsMissing(back.Row(1)[0]))
	assert.True(t, frame.Equal(tbl, back))

	// without a token the empty string is read back as missing
	buf.Reset()
	require.NoError(t, WriteCSV(&buf, tbl, WriteOptions{}))
	lossy, err := ReadCSV(strings.NewReader(buf.String()), ReadOptions{})
	require.NoError(t, err)
	assert.True(t, frame.IsMissing(lossy.Row(0)[1]))
}
