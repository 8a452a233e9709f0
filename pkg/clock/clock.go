// Package clock implements the relative two-level clock that every
// simulated object carries.
//
// Time is counted in cycles and steps: step_size steps make one cycle.
// A freshly created clock reads (cycle=1, step=0), and each Advance
// moves the step forward, rolling over into the next cycle when the
// step count reaches step_size:
//
//	step_size = 3:  (1,0) -> (1,1) -> (1,2) -> (2,0) -> (2,1) -> ...
//
// The (cycle, step) pair is strictly increasing across Advance calls,
// which is what makes temporal identities derived from it unique.
//
// Overflow is fail-fast: an Advance that would push the cycle past the
// uint64 range returns ErrClockOverflow and leaves the clock unchanged.
// A simulation that exhausts uint64 cycles should be redesigned rather
// than allowed to wrap and reuse identities.
//
// Note: Clock is not goroutine-safe. Each object owns its clock
// exclusively and the graph layer guarantees no two ticks of the same
// object overlap.
package clock

import (
	"errors"
	"math"
)

// ErrInvalidStepSize is returned by New when stepSize is zero.
var ErrInvalidStepSize = errors.New("clock: step size must be positive")

// ErrClockOverflow is returned by Advance when the cycle counter would
// exceed the uint64 range. The clock is left unchanged.
var ErrClockOverflow = errors.New("clock: cycle counter overflow")

// Clock is a relative cycle/step clock. Not goroutine-safe; see package doc.
type Clock struct {
	cycle    uint64
	step     uint64
	stepSize uint64
}

// New creates a clock reading (cycle=1, step=0) that rolls over every
// stepSize steps. stepSize must be positive.
func New(stepSize uint64) (*Clock, error) {
	if stepSize == 0 {
		return nil, ErrInvalidStepSize
	}
	return &Clock{cycle: 1, step: 0, stepSize: stepSize}, nil
}

// Advance moves the clock forward by one step, incrementing the cycle
// and resetting the step to zero at every cycle boundary. Fails with
// ErrClockOverflow instead of wrapping.
func (c *Clock) Advance() error {
	next := c.step + 1
	if next < c.stepSize {
		c.step = next
		return nil
	}
	if c.cycle == math.MaxUint64 {
		return ErrClockOverflow
	}
	c.cycle++
	c.step = 0
	return nil
}

// Cycle returns the current cycle. Always >= 1.
func (c *Clock) Cycle() uint64 { return c.cycle }

// Step returns the current step within the cycle. Always < StepSize.
func (c *Clock) Step() uint64 { return c.step }

// StepSize returns the number of steps per cycle.
func (c *Clock) StepSize() uint64 { return c.stepSize }

// Peek returns the (cycle, step) reading the clock would have after the
// next successful Advance, without mutating it. The object tick stamps
// a snapshot from this reading before committing the advance, so a
// failed snapshot leaves the clock untouched.
func (c *Clock) Peek() (cycle, step uint64, err error) {
	next := c.step + 1
	if next < c.stepSize {
		return c.cycle, next, nil
	}
	if c.cycle == math.MaxUint64 {
		return 0, 0, ErrClockOverflow
	}
	return c.cycle + 1, 0, nil
}
