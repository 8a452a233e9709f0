// Package sim implements the simulated object: the unit the graph
// ticks.
//
// An object owns exactly one clock, one identity, and one history
// buffer, none of them shared, and wraps a Behavior that supplies
// the domain-specific payload. Tick is the only mutation path and is
// commit-after-success: the behavior runs against the clock reading
// the tick WOULD produce, and the clock, identity, and history are
// only updated once the behavior has succeeded. A failed behavior
// therefore leaves the object exactly as it was, and the failed tick
// simply never happened for that object.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/csmangum/TimeBandit/pkg/clock"
	"github.com/csmangum/TimeBandit/pkg/history"
	"github.com/csmangum/TimeBandit/pkg/identity"
	"github.com/csmangum/TimeBandit/pkg/model"
)

// DefaultStepSize is the steps-per-cycle used when WithStepSize is not given.
const DefaultStepSize = 1

// DefaultHistory is the history capacity used when WithHistory is not given.
const DefaultHistory = 64

// UpdateError reports that an object's behavior failed to produce a
// snapshot. The object's clock, identity, and history are unchanged.
type UpdateError struct {
	Root string
	Err  error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("sim: update of object %s failed: %v", e.Root, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// Object is one stateful member of a simulation graph.
//
// Not goroutine-safe on its own: the graph guarantees Tick is invoked
// at most once per logical tick and never concurrently on the same
// object.
type Object struct {
	clk      *clock.Clock
	id       *identity.Identity
	buf      *history.Buffer
	behavior Behavior
}

// Option configures an object at construction.
type Option func(*options)

type options struct {
	root     string
	stepSize uint64
	capacity int
}

// WithRoot sets an explicit root identity instead of a generated UUID.
func WithRoot(root string) Option {
	return func(o *options) { o.root = root }
}

// WithStepSize sets the steps per cycle of the object's clock.
func WithStepSize(n uint64) Option {
	return func(o *options) { o.stepSize = n }
}

// WithHistory sets the capacity of the object's history buffer.
func WithHistory(capacity int) Option {
	return func(o *options) { o.capacity = capacity }
}

// New creates an object around a behavior. Defaults: generated UUID
// root, step size 1, history capacity 64.
func New(behavior Behavior, opts ...Option) (*Object, error) {
	if behavior == nil {
		return nil, fmt.Errorf("sim: behavior must not be nil")
	}
	o := options{stepSize: DefaultStepSize, capacity: DefaultHistory}
	for _, opt := range opts {
		opt(&o)
	}

	clk, err := clock.New(o.stepSize)
	if err != nil {
		return nil, err
	}
	buf, err := history.New(o.capacity)
	if err != nil {
		return nil, err
	}

	id := identity.New()
	if o.root != "" {
		id = identity.NewWithRoot(o.root)
	}
	return &Object{clk: clk, id: id, buf: buf, behavior: behavior}, nil
}

// Tick advances the object by one logical tick: peek the next clock
// reading, ask the behavior for a payload, then commit by advancing
// the clock, refreshing the temporal identity, and recording the
// stamped snapshot. On any failure the object is left untouched and
// the error is an *UpdateError carrying the root.
func (obj *Object) Tick(ctx context.Context) (model.Snapshot, error) {
	cycle, step, err := obj.clk.Peek()
	if err != nil {
		return model.Snapshot{}, &UpdateError{Root: obj.Root(), Err: err}
	}

	payload, err := obj.behavior.ProduceSnapshot(ctx)
	if err != nil {
		return model.Snapshot{}, &UpdateError{Root: obj.Root(), Err: err}
	}

	// Behavior succeeded, so commit. Advance cannot fail here (Peek already
	// checked overflow) and Refresh cannot be out of order (the peeked
	// reading is strictly greater than the last committed one), so a
	// failure on either is an internal invariant violation.
	if err := obj.clk.Advance(); err != nil {
		return model.Snapshot{}, &UpdateError{Root: obj.Root(), Err: err}
	}
	temporal, err := obj.id.Refresh(cycle, step)
	if err != nil {
		return model.Snapshot{}, &UpdateError{Root: obj.Root(), Err: err}
	}

	snap := model.Snapshot{
		Root:     obj.Root(),
		Temporal: temporal,
		Cycle:    cycle,
		Step:     step,
		StepSize: obj.clk.StepSize(),
		Payload:  payload,
		Recorded: time.Now().UTC(),
	}
	obj.buf.Append(snap)
	return snap, nil
}

// Root returns the object's immutable root identity.
func (obj *Object) Root() string { return obj.id.Root() }

// Temporal returns the temporal identity of the most recent tick.
func (obj *Object) Temporal() string { return obj.id.Current() }

// Cycle returns the clock's current cycle.
func (obj *Object) Cycle() uint64 { return obj.clk.Cycle() }

// Step returns the clock's current step.
func (obj *Object) Step() uint64 { return obj.clk.Step() }

// StepSize returns the clock's steps per cycle.
func (obj *Object) StepSize() uint64 { return obj.clk.StepSize() }

// LastN returns the n most recent snapshots, oldest first.
func (obj *Object) LastN(n int) []model.Snapshot { return obj.buf.LastN(n) }

// History returns every retained snapshot, oldest first.
func (obj *Object) History() []model.Snapshot { return obj.buf.LastN(obj.buf.Cap()) }
