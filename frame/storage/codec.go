package storage

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wbrown/janus-indexmatch/frame"
)

// missingExtID is the msgpack extension type carrying frame.Missing.
const missingExtID int8 = 1

func init() {
	msgpack.RegisterExt(missingExtID, (*missingExt)(nil))
}

// missingExt is the on-disk form of frame.Missing. It has no payload.
type missingExt struct{}

func (*missingExt) MarshalMsgpack() ([]byte, error) { return []byte{}, nil }

func (*missingExt) UnmarshalMsgpack(b []byte) error {
	if len(b) != 0 {
		return fmt.Errorf("missing marker: expected empty payload, got %d bytes", len(b))
	}
	return nil
}

// storedTable is the msgpack layout of a table.
type storedTable struct {
	Columns []string        `msgpack:"columns"`
	Index   []interface{}   `msgpack:"index"`
	Rows    [][]interface{} `msgpack:"rows"`
}

// EncodeTable serializes a table to msgpack.
func EncodeTable(t *frame.Table) ([]byte, error) {
	st := storedTable{
		Columns: t.Columns(),
		Index:   toStored(t.Index()),
		Rows:    make([][]interface{}, t.Len()),
	}
	for i := range st.Rows {
		st.Rows[i] = toStored(t.Row(i))
	}

	data, err := msgpack.Marshal(&st)
	if err != nil {
		return nil, fmt.Errorf("failed to encode table: %w", err)
	}
	return data, nil
}

// DecodeTable deserializes a table written by EncodeTable.
// Integers come back as int64 (or uint64 above MaxInt64), floats as float64.
func DecodeTable(data []byte) (*frame.Table, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var st storedTable
	if err := dec.Decode(&st); err != nil {
		return nil, fmt.Errorf("failed to decode table: %w", err)
	}

	rows := make([]frame.Row, len(st.Rows))
	for i, r := range st.Rows {
		rows[i] = fromStored(r)
	}

	t, err := frame.NewTableWithIndex(st.Columns, rows, fromStored(st.Index))
	if err != nil {
		return nil, fmt.Errorf("failed to decode table: %w", err)
	}
	return t, nil
}

func toStored(values []frame.Value) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if frame.IsMissing(v) {
			out[i] = &missingExt{}
			continue
		}
		out[i] = v
	}
	return out
}

func fromStored(values []interface{}) []frame.Value {
	out := make([]frame.Value, len(values))
	for i, v := range values {
		switch v.(type) {
		case *missingExt, missingExt:
			out[i] = frame.Missing
		default:
			out[i] = v
		}
	}
	return out
}
