package indexmatch

import (
	"errors"
	"fmt"

	"github.com/wbrown/janus-indexmatch/frame"
)

var (
	// ErrAmbiguousMatch is returned under FanOutReject when a lookup value
	// matches more than one reference row.
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrInvalidJoinKey is returned when a JoinKey has an empty side.
	ErrInvalidJoinKey = errors.New("invalid join key")

	// ErrNilTable is returned when no reference table is given.
	ErrNilTable = errors.New("nil reference table")
)

// AmbiguousMatchError reports the first lookup value that fanned out.
type AmbiguousMatchError struct {
	Value   frame.Value // the lookup value
	Label   frame.Value // its index label in the lookup series
	Column  string      // reference column searched
	Matches int         // number of reference rows holding Value
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%v: value %s (label %s) matches %d rows of %q",
		ErrAmbiguousMatch, frame.FormatValue(e.Value), frame.FormatValue(e.Label), e.Matches, e.Column)
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguousMatch }
