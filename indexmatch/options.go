package indexmatch

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-indexmatch/frame"
	"github.com/wbrown/janus-indexmatch/frame/annotations"
)

// FanOutPolicy decides what happens when a lookup value matches more than
// one reference row.
type FanOutPolicy int

const (
	// FanOutReject fails the lookup with ErrAmbiguousMatch.
	FanOutReject FanOutPolicy = iota
	// FanOutFirst keeps the first matching reference row.
	FanOutFirst
	// FanOutLast keeps the last matching reference row.
	FanOutLast
	// FanOutExpand keeps every match. The lookup row is repeated once per
	// match and every copy carries the lookup row's index label.
	FanOutExpand
)

var fanOutNames = map[FanOutPolicy]string{
	FanOutReject: "reject",
	FanOutFirst:  "first",
	FanOutLast:   "last",
	FanOutExpand: "expand",
}

func (p FanOutPolicy) String() string {
	if name, ok := fanOutNames[p]; ok {
		return name
	}
	return fmt.Sprintf("FanOutPolicy(%d)", int(p))
}

// ParseFanOutPolicy parses the names printed by FanOutPolicy.String.
func ParseFanOutPolicy(s string) (FanOutPolicy, error) {
	for p, name := range fanOutNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown fan-out policy %q (use reject, first, last or expand)", s)
}

func (p FanOutPolicy) pick() frame.MatchPick {
	switch p {
	case FanOutFirst:
		return frame.MatchFirst
	case FanOutLast:
		return frame.MatchLast
	default:
		return frame.MatchAll
	}
}

// Options controls a lookup. The zero value is the default behaviour:
// no concatenation, ambiguous matches rejected, no annotations.
type Options struct {
	// ConcatMatches prepends the lookup values as a column named after
	// JoinKey.Left.
	ConcatMatches bool

	// FanOut selects the duplicate-match policy.
	FanOut FanOutPolicy

	// Handler receives annotation events; nil disables them.
	Handler annotations.Handler

	// ChunkSize and Workers tune LookupParallel. Zero picks defaults.
	ChunkSize int
	Workers   int
}

// Option mutates Options.
type Option func(*Options)

// WithConcatMatches returns the lookup values as the leading column.
func WithConcatMatches(concat bool) Option {
	return func(o *Options) { o.ConcatMatches = concat }
}

// WithFanOut sets the duplicate-match policy.
func WithFanOut(policy FanOutPolicy) Option {
	return func(o *Options) { o.FanOut = policy }
}

// WithHandler sends annotation events to h.
func WithHandler(h annotations.Handler) Option {
	return func(o *Options) { o.Handler = h }
}

// WithChunkSize sets how many lookup values each parallel task handles.
func WithChunkSize(n int) Option {
	return func(o *Options) { o.ChunkSize = n }
}

// WithWorkers bounds the number of concurrent parallel tasks.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
