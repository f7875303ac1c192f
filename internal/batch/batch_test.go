package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// echoFetch returns the ids it was asked for, like a store where every id
// has a matching row.
func echoFetch(_ context.Context, ids []int64) ([]int64, error) {
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

func makeIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids
}

func TestFetchNoLossNoDuplication(t *testing.T) {
	ids := makeIDs(23)

	for _, chunkSize := range []int{1, 7, len(ids)} {
		got, err := Fetch(context.Background(), ids, chunkSize, 3, echoFetch)
		if err != nil {
			t.Fatalf("chunk size %d: unexpected error: %v", chunkSize, err)
		}
		if len(got) != len(ids) {
			t.Fatalf("chunk size %d: expected %d results, got %d", chunkSize, len(ids), len(got))
		}
		for i, id := range ids {
			if got[i] != id {
				t.Fatalf("chunk size %d: position %d: expected %d, got %d", chunkSize, i, id, got[i])
			}
		}
	}
}

func TestFetchPreservesChunkOrderDespiteCompletionOrder(t *testing.T) {
	ids := makeIDs(12)

	// Earlier chunks finish later.
	var calls int32
	fn := func(_ context.Context, chunk []int64) ([]int64, error) {
		n := atomic.AddInt32(&calls, 1)
		time.Sleep(time.Duration(5-n) * 5 * time.Millisecond)
		out := make([]int64, len(chunk))
		copy(out, chunk)
		return out, nil
	}

	got, err := Fetch(context.Background(), ids, 3, 4, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, id := range ids {
		if got[i] != id {
			t.Fatalf("position %d: expected %d, got %d", i, id, got[i])
		}
	}
}

func TestFetchMissingIDsAreAbsentNotErrors(t *testing.T) {
	ids := makeIDs(10)
	fn := func(_ context.Context, chunk []int64) ([]int64, error) {
		var out []int64
		for _, id := range chunk {
			if id%2 == 0 {
				out = append(out, id)
			}
		}
		return out, nil
	}

	got, err := Fetch(context.Background(), ids, 3, 2, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 matching ids, got %v", got)
	}
}

func TestFetchChunkFailureNamesChunk(t *testing.T) {
	ids := makeIDs(20)
	boom := errors.New("store unavailable")
	fn := func(_ context.Context, chunk []int64) ([]int64, error) {
		if chunk[0] == 8 {
			return nil, boom
		}
		return chunk, nil
	}

	_, err := Fetch(context.Background(), ids, 7, 1, fn)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "chunk 2/3") {
		t.Errorf("expected failing chunk named, got %q", err.Error())
	}
}

func TestFetchBoundedParallelism(t *testing.T) {
	ids := makeIDs(40)

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	fn := func(_ context.Context, chunk []int64) ([]int64, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return chunk, nil
	}

	if _, err := Fetch(context.Background(), ids, 2, 3, fn); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxInFlight > 3 {
		t.Errorf("parallelism cap exceeded: %d concurrent chunks", maxInFlight)
	}
}

func TestFetchCancellation(t *testing.T) {
	ids := makeIDs(100)
	ctx, cancel := context.WithCancel(context.Background())

	fn := func(ctx context.Context, chunk []int64) ([]int64, error) {
		if chunk[0] == 1 {
			cancel()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return chunk, nil
		}
	}

	_, err := Fetch(ctx, ids, 10, 2, fn)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestFetchEmptyInput(t *testing.T) {
	got, err := Fetch(context.Background(), nil, 10, 2, echoFetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil result for empty input, got %v", got)
	}
}

func TestSplitContiguous(t *testing.T) {
	chunks := split(makeIDs(10), 4)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	want := [][]int64{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10}}
	for i, chunk := range chunks {
		if fmt.Sprint(chunk) != fmt.Sprint(want[i]) {
			t.Errorf("chunk %d: expected %v, got %v", i, want[i], chunk)
		}
	}
}
