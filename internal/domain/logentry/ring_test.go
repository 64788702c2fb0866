package logentry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func entryWithMessage(msg string) Entry {
	return Entry{Level: "info", Message: msg, Source: "test", DeviceID: "device-1"}
}

func TestAppendAssignsDefaults(t *testing.T) {
	ring := NewRingStore(10)

	before := time.Now().UTC()
	stored := ring.Append(entryWithMessage("hello"))

	require.Equal(t, int64(1), stored.Sequence)
	require.NotEmpty(t, stored.ID)
	require.False(t, stored.Timestamp.Before(before))
	require.False(t, stored.Timestamp.After(time.Now().UTC()))
}

func TestAppendKeepsProvidedIDAndTimestamp(t *testing.T) {
	ring := NewRingStore(10)
	ts := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	stored := ring.Append(Entry{ID: "client-1", Timestamp: ts, Level: "info", Message: "hi"})

	require.Equal(t, "client-1", stored.ID)
	require.Equal(t, ts, stored.Timestamp)
}

func TestCapacityEviction(t *testing.T) {
	ring := NewRingStore(3)

	for _, msg := range []string{"A", "B", "C", "D"} {
		ring.Append(entryWithMessage(msg))
	}

	snapshot := ring.Snapshot()
	require.Len(t, snapshot, 3)
	require.Equal(t, "B", snapshot[0].Message)
	require.Equal(t, "C", snapshot[1].Message)
	require.Equal(t, "D", snapshot[2].Message)
}

func TestCapacityInvariantManyAppends(t *testing.T) {
	const capacity = 7
	const total = 100
	ring := NewRingStore(capacity)

	for i := 0; i < total; i++ {
		ring.Append(entryWithMessage(fmt.Sprintf("msg-%d", i)))
	}

	snapshot := ring.Snapshot()
	require.Len(t, snapshot, capacity)
	seen := make(map[int64]bool)
	for i, e := range snapshot {
		require.False(t, seen[e.Sequence], "duplicate sequence %d", e.Sequence)
		seen[e.Sequence] = true
		require.Equal(t, int64(total-capacity+i+1), e.Sequence)
	}
}

func TestReadAfterWrite(t *testing.T) {
	ring := NewRingStore(5)

	stored := ring.Append(entryWithMessage("now"))

	snapshot := ring.Snapshot()
	require.NotEmpty(t, snapshot)
	require.Equal(t, stored.Sequence, snapshot[len(snapshot)-1].Sequence)
}

func TestClearKeepsSequenceCounter(t *testing.T) {
	ring := NewRingStore(5)

	ring.Append(entryWithMessage("one"))
	ring.Append(entryWithMessage("two"))
	last := ring.LastSequence()

	ring.Clear()
	require.Empty(t, ring.Snapshot())
	require.Zero(t, ring.Len())

	stored := ring.Append(entryWithMessage("three"))
	require.Greater(t, stored.Sequence, last)
}

func TestClearIdempotent(t *testing.T) {
	ring := NewRingStore(5)
	ring.Append(entryWithMessage("one"))

	ring.Clear()
	ring.Clear()

	require.Empty(t, ring.Snapshot())
}

func TestConcurrentAppendsSequencesDistinct(t *testing.T) {
	const workers = 8
	const perWorker = 200
	ring := NewRingStore(workers * perWorker)

	var wg sync.WaitGroup
	seqs := make([][]int64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				stored := ring.Append(entryWithMessage("concurrent"))
				seqs[w] = append(seqs[w], stored.Sequence)
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, worker := range seqs {
		for i, s := range worker {
			require.False(t, seen[s], "sequence %d assigned twice", s)
			seen[s] = true
			if i > 0 {
				// Each caller observes strictly increasing numbers.
				require.Greater(t, s, worker[i-1])
			}
		}
	}
	require.Len(t, seen, workers*perWorker)
	require.Equal(t, int64(workers*perWorker), ring.LastSequence())
}

func TestSnapshotIsACopy(t *testing.T) {
	ring := NewRingStore(5)
	ring.Append(entryWithMessage("original"))

	snapshot := ring.Snapshot()
	snapshot[0].Message = "mutated"

	require.Equal(t, "original", ring.Snapshot()[0].Message)
}

func TestNonPositiveCapacityFallsBack(t *testing.T) {
	ring := NewRingStore(0)
	require.Equal(t, DefaultCapacity, ring.Capacity())
}
