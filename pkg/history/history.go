// Package history provides the bounded snapshot window every simulated
// object keeps.
//
// A Buffer is a fixed-capacity ring over a preallocated slice: Append
// is O(1) and, once the buffer is full, overwrites the oldest entry in
// strict FIFO order. Long-running simulations tick forever, so the one
// structural guarantee this package exists to give is that per-object
// history never grows without bound: only the most recent window is
// retained, which is all rollback and windowed inspection need.
//
// Not goroutine-safe; each object owns its buffer exclusively.
package history

import (
	"errors"

	"github.com/csmangum/TimeBandit/pkg/model"
)

// ErrInvalidCapacity is returned by New when capacity is zero.
var ErrInvalidCapacity = errors.New("history: capacity must be positive")

// Buffer is a fixed-capacity FIFO ring of snapshots. Insertion order is
// temporal order: the object appends exactly one snapshot per tick.
type Buffer struct {
	entries []model.Snapshot
	head    int // index of the oldest entry when count == len(entries)
	count   int
}

// New creates an empty buffer holding at most capacity snapshots.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Buffer{entries: make([]model.Snapshot, capacity)}, nil
}

// Append records a snapshot, evicting the oldest entry if the buffer is
// full. Eviction is silent; it is observable only through LastN.
func (b *Buffer) Append(s model.Snapshot) {
	if b.count < len(b.entries) {
		b.entries[(b.head+b.count)%len(b.entries)] = s
		b.count++
		return
	}
	b.entries[b.head] = s
	b.head = (b.head + 1) % len(b.entries)
}

// LastN returns the min(n, Len) most recent snapshots in chronological
// order, oldest first. n <= 0 yields nil; n beyond the stored count
// yields everything. The cost is O(n), not O(capacity).
func (b *Buffer) LastN(n int) []model.Snapshot {
	if n <= 0 || b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}
	out := make([]model.Snapshot, n)
	start := b.head + b.count - n
	for i := 0; i < n; i++ {
		out[i] = b.entries[(start+i)%len(b.entries)]
	}
	return out
}

// Latest returns the most recent snapshot, or false if empty.
func (b *Buffer) Latest() (model.Snapshot, bool) {
	if b.count == 0 {
		return model.Snapshot{}, false
	}
	return b.entries[(b.head+b.count-1)%len(b.entries)], true
}

// Len returns the number of stored snapshots.
func (b *Buffer) Len() int { return b.count }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.entries) }
