// Package identity derives the two-part identity of a simulated object.
//
// Every object has a root identity assigned once at construction and
// stable for the object's whole lifetime, plus a temporal identity
// recomputed on every tick from the root and the clock reading:
//
//	temporal = "{root}.{cycle}.{step}"
//
// Because the (cycle, step) pair is strictly increasing across ticks,
// temporal identities are unique per root and totally ordered by
// TemporalLess. Refresh enforces the ordering: a refresh at a reading
// not strictly greater than the previous one is an internal invariant
// violation and fails with ErrOutOfOrderRefresh. The object tick is
// the only caller and always refreshes immediately after a successful
// clock advance, so the error marks a programming bug, not a condition
// callers recover from.
package identity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrOutOfOrderRefresh is returned by Refresh when the given (cycle,
// step) reading is not strictly greater than the previous reading.
var ErrOutOfOrderRefresh = errors.New("identity: refresh out of temporal order")

// Identity holds the root and current temporal identity of one object.
// Not goroutine-safe; owned exclusively by its object.
type Identity struct {
	root      string
	temporal  string
	lastCycle uint64
	lastStep  uint64
}

// New creates an identity with a fresh UUID root, seeded at the initial
// clock reading (cycle=1, step=0).
func New() *Identity {
	return NewWithRoot(uuid.NewString())
}

// NewWithRoot creates an identity with a caller-chosen root. Scenario
// files and tests use this for stable, human-readable roots; the graph
// enforces uniqueness across its members.
func NewWithRoot(root string) *Identity {
	return &Identity{
		root:      root,
		temporal:  Temporal(root, 1, 0),
		lastCycle: 1,
		lastStep:  0,
	}
}

// Root returns the immutable root identity.
func (id *Identity) Root() string { return id.root }

// Current returns the temporal identity of the most recent tick (or the
// seed value if the object has never ticked).
func (id *Identity) Current() string { return id.temporal }

// Refresh recomputes the temporal identity for the given clock reading
// and returns it. The reading must be strictly greater than the
// previous one in the (cycle, step) order.
func (id *Identity) Refresh(cycle, step uint64) (string, error) {
	if !TemporalLess(id.lastCycle, id.lastStep, cycle, step) {
		return "", fmt.Errorf("%w: (%d,%d) after (%d,%d)",
			ErrOutOfOrderRefresh, cycle, step, id.lastCycle, id.lastStep)
	}
	id.lastCycle = cycle
	id.lastStep = step
	id.temporal = Temporal(id.root, cycle, step)
	return id.temporal, nil
}

// Temporal formats the temporal identity for a root at a clock reading.
func Temporal(root string, cycle, step uint64) string {
	return fmt.Sprintf("%s.%d.%d", root, cycle, step)
}

// TemporalLess defines the strict total order of clock readings within
// one root: (cycleA, stepA) < (cycleB, stepB) iff the cycle is lower,
// or the cycles are equal and the step is lower.
func TemporalLess(cycleA, stepA, cycleB, stepB uint64) bool {
	if cycleA != cycleB {
		return cycleA < cycleB
	}
	return stepA < stepB
}
