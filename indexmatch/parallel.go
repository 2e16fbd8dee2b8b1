package indexmatch

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wbrown/janus-indexmatch/frame"
	"github.com/wbrown/janus-indexmatch/frame/annotations"
)

// DefaultChunkSize is the number of lookup values per parallel task when
// no chunk size is configured.
const DefaultChunkSize = 4096

// LookupParallel is Lookup split across goroutines. values is cut into
// contiguous chunks which are matched concurrently against one shared
// Matcher; the chunk results are stacked back in order, so the result is
// identical to Lookup's.
func LookupParallel(ctx context.Context, values frame.Series, table *frame.Table, returnCols []string, key JoinKey, opts ...Option) (*frame.Table, error) {
	m, err := NewMatcher(table, returnCols, key, opts...)
	if err != nil {
		return nil, err
	}
	return m.LookupParallel(ctx, values)
}

// LookupParallel runs Lookup over chunks of values concurrently.
// It returns ctx.Err() if the context is cancelled before all chunks finish.
// When several chunks fail, one of their errors is returned.
func (m *Matcher) LookupParallel(ctx context.Context, values frame.Series) (*frame.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunkSize := m.opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	workers := m.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if values.Len() <= chunkSize {
		return m.Lookup(values)
	}

	start := time.Now()
	var chunks []frame.Series
	for i := 0; i < values.Len(); i += chunkSize {
		end := min(i+chunkSize, values.Len())
		chunks = append(chunks, values.Slice(i, end))
	}

	collector := annotations.NewCollector(m.opts.Handler)
	if collector.Enabled() {
		collector.AddTiming(annotations.LookupChunked, start, map[string]interface{}{
			"values.size": values.Len(),
			"chunks":      len(chunks),
			"workers":     workers,
		})
	}

	results := make([]*frame.Table, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Per-chunk events would drown the summary; chunks run silent.
			res, err := m.lookup(chunk, nil)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := frame.ConcatRows(results...)
	if err != nil {
		return nil, err
	}

	if collector.Enabled() {
		collector.AddTiming(annotations.LookupComplete, start, map[string]interface{}{
			"success":      true,
			"result.size":  result.Len(),
			"result.width": result.Width(),
		})
	}
	return result, nil
}
