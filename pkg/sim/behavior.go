// behavior.go defines the capability an object's domain logic must
// supply, plus the built-in behaviors the CLI and tests exercise.
//
// The core never depends on a concrete behavior hierarchy, only on
// the Behavior interface. Anything that can produce a payload as a
// pure function of its own state plugs in: weather cells, population
// models, traffic nodes, or the toy behaviors below.
package sim

import (
	"context"
	"math/rand"
)

// Behavior produces the domain-specific payload of one tick's snapshot.
//
// Implementations must be pure relative to the core's own fields: they
// may read and mutate state they own, but must not touch another
// object's clock, identity, or history. When the graph runs ticks
// concurrently, each object's behavior is called by exactly one worker
// per tick, so a behavior only needs to be safe against behaviors of
// OTHER objects, which it is automatically if it owns all its state.
//
// A returned error aborts the tick for this object only; the core
// wraps it in *UpdateError and leaves the object's clock, identity,
// and history exactly as they were.
type Behavior interface {
	ProduceSnapshot(ctx context.Context) (map[string]any, error)
}

// BehaviorFunc adapts a plain function to the Behavior interface.
type BehaviorFunc func(ctx context.Context) (map[string]any, error)

// ProduceSnapshot calls f.
func (f BehaviorFunc) ProduceSnapshot(ctx context.Context) (map[string]any, error) {
	return f(ctx)
}

// Counter is a behavior that increments a counter every tick. The
// simplest possible stateful object; useful for scenarios and tests.
type Counter struct {
	count int64
}

// NewCounter returns a counter starting at the given value.
func NewCounter(start int64) *Counter {
	return &Counter{count: start}
}

// ProduceSnapshot increments the counter and reports its new value.
func (c *Counter) ProduceSnapshot(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.count++
	return map[string]any{"count": c.count}, nil
}

// RandomWalk is a behavior that takes a unit step up or down each tick.
// The walk is deterministic per seed, so scenario runs are repeatable.
type RandomWalk struct {
	rng      *rand.Rand
	position int64
}

// NewRandomWalk returns a walk starting at position with the given seed.
func NewRandomWalk(seed, position int64) *RandomWalk {
	return &RandomWalk{rng: rand.New(rand.NewSource(seed)), position: position}
}

// ProduceSnapshot moves one step and reports the new position.
func (w *RandomWalk) ProduceSnapshot(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.rng.Intn(2) == 0 {
		w.position--
	} else {
		w.position++
	}
	return map[string]any{"position": w.position}, nil
}
