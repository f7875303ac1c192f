// Package batch splits large identifier lists into bounded chunks for
// fan-out reads against the backing store.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/vikasmalikst/evidently-aeo-sub013/internal/metrics"
)

const (
	DefaultChunkSize   = 200
	DefaultParallelism = 4
)

// Fetch partitions ids into contiguous chunks in input order, runs fn over
// the chunks with at most parallelism workers, and concatenates the chunk
// results in chunk order, so output ordering is stable across calls even
// though completion order is not. Any chunk failure fails the whole fetch
// with the failing chunk named; there are no partial results and no
// internal retries. An id with no matching row is simply absent from the
// output, never an error.
func Fetch[T any](ctx context.Context, ids []int64, chunkSize, parallelism int, fn func(context.Context, []int64) ([]T, error)) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	chunks := split(ids, chunkSize)
	if len(chunks) == 1 {
		metrics.ChunkFetches.Inc()
		out, err := fn(ctx, chunks[0])
		if err != nil {
			return nil, fmt.Errorf("chunk 1/1 (%d ids): %w", len(chunks[0]), err)
		}
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]T, len(chunks))
	sem := make(chan struct{}, parallelism)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, chunk := range chunks {
		wg.Add(1)
		go func(idx int, chunkIDs []int64) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			metrics.ChunkFetches.Inc()
			out, err := fn(ctx, chunkIDs)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("chunk %d/%d (%d ids): %w", idx+1, len(chunks), len(chunkIDs), err)
					cancel()
				}
				mu.Unlock()
				return
			}
			results[idx] = out
		}(i, chunk)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []T
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged, nil
}

func split(ids []int64, chunkSize int) [][]int64 {
	var chunks [][]int64
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
