package frame

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
)

// KeyIndex maps single-column key values to the row positions holding them.
// It uses the value hash directly as the Go map key and resolves collisions
// with ValuesEqual, so numeric keys of different widths land together.
//
// A KeyIndex is immutable once built and safe for concurrent readers.
type KeyIndex struct {
	m    map[uint64][]keyEntry
	keys int
	rows int
}

type keyEntry struct {
	value Value
	rows  []int
}

// NewKeyIndex builds an index over the given key column values.
// Missing keys are skipped since they can never match.
func NewKeyIndex(values []Value) *KeyIndex {
	idx := &KeyIndex{
		m:    make(map[uint64][]keyEntry, len(values)),
		rows: len(values),
	}

	for row, v := range values {
		if IsMissing(v) || isNaN(v) {
			continue
		}
		h := hashValue(v)
		entries := idx.m[h]
		found := false
		for i := range entries {
			if ValuesEqual(entries[i].value, v) {
				entries[i].rows = append(entries[i].rows, row)
				found = true
				break
			}
		}
		if !found {
			idx.m[h] = append(entries, keyEntry{value: v, rows: []int{row}})
			idx.keys++
		}
	}

	return idx
}

// Rows returns the positions of rows whose key equals v, in row order.
// The returned slice must not be modified.
func (idx *KeyIndex) Rows(v Value) []int {
	if IsMissing(v) {
		return nil
	}
	for _, e := range idx.m[hashValue(v)] {
		if ValuesEqual(e.value, v) {
			return e.rows
		}
	}
	return nil
}

// Contains reports whether v occurs at least once.
func (idx *KeyIndex) Contains(v Value) bool {
	return len(idx.Rows(v)) > 0
}

// DistinctKeys returns the number of distinct indexed keys.
func (idx *KeyIndex) DistinctKeys() int {
	return idx.keys
}

// Unique reports whether no key occurs on more than one row.
func (idx *KeyIndex) Unique() bool {
	for _, entries := range idx.m {
		for _, e := range entries {
			if len(e.rows) > 1 {
				return false
			}
		}
	}
	return true
}

// Len returns the number of rows the index was built over.
func (idx *KeyIndex) Len() int {
	return idx.rows
}

func isNaN(v Value) bool {
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}

// hashValue hashes a single value after numeric canonicalisation.
// Each type gets its own tag byte so "1" and 1 do not share a bucket.
func hashValue(v Value) uint64 {
	var buf [9]byte

	switch val := canonical(v).(type) {
	case int64:
		buf[0] = 'i'
		binary.LittleEndian.PutUint64(buf[1:], uint64(val))
	case uint64:
		buf[0] = 'u'
		binary.LittleEndian.PutUint64(buf[1:], val)
	case float64:
		buf[0] = 'f'
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(val))
	case bool:
		buf[0] = 'b'
		if val {
			buf[1] = 1
		}
	case time.Time:
		buf[0] = 't'
		binary.LittleEndian.PutUint64(buf[1:], uint64(val.UnixNano()))
	case nil:
		buf[0] = 'n'
	case string:
		return xxhash.Sum64String(val)
	default:
		return xxhash.Sum64String(FormatValue(val))
	}

	return xxhash.Sum64(buf[:])
}
