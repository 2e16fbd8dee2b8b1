package frame

import (
	"fmt"
	"math"
	"time"
)

// Value represents a single cell, index label or lookup value.
// Like the rest of the package we use interface{} with direct Go types
// rather than a tagged union.
type Value interface{}

// Valid value types:
// - string
// - int, int64, uint64
// - float64
// - bool
// - time.Time
// - nil
// - Missing (no match / absent cell)

// missingMarker is the type of Missing. It has no fields so every copy of
// Missing compares equal under ==, but ValuesEqual never treats it as a
// matchable key.
type missingMarker struct{}

// Missing is the sentinel stored in a cell when a lookup found no match.
// It is distinct from every legitimate value, including nil, "" and 0.
var Missing Value = missingMarker{}

func (missingMarker) String() string { return "NaN" }

// IsMissing reports whether v is the Missing marker.
func IsMissing(v Value) bool {
	_, ok := v.(missingMarker)
	return ok
}

// canonical folds numeric values of different widths onto one
// representation so that int(5), int64(5), uint64(5) and float64(5) compare
// and hash identically. Non-numeric values are returned unchanged.
func canonical(v Value) Value {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint32:
		return int64(n)
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n)
		}
		return n
	case float32:
		return canonical(float64(n))
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n)
		}
		return n
	}
	return v
}

// ValuesEqual reports whether two values are equal as join keys.
// Missing never equals anything, and NaN never equals anything.
func ValuesEqual(a, b Value) bool {
	if IsMissing(a) || IsMissing(b) {
		return false
	}

	a, b = canonical(a), canonical(b)

	if t1, ok := a.(time.Time); ok {
		if t2, ok := b.(time.Time); ok {
			return t1.Equal(t2)
		}
		return false
	}

	switch a.(type) {
	case int64, uint64, float64, string, bool, nil:
		return a == b
	}

	// Unknown types fall back to formatted comparison, same type only
	if fmt.Sprintf("%T", a) != fmt.Sprintf("%T", b) {
		return false
	}
	return FormatValue(a) == FormatValue(b)
}

// FormatValue converts a value to its display representation
func FormatValue(val Value) string {
	if val == nil {
		return "nil"
	}

	switch v := val.(type) {
	case missingMarker:
		return v.String()
	case string:
		return v
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case uint64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprintf("%v", v)
	}
}
