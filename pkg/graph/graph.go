// Package graph orchestrates the per-tick update of a population of
// simulated objects.
//
// A Graph owns a set of objects keyed by root identity and a set of
// directed edges between roots. Edges record relationships for the
// owning application; the tick loop itself never traverses them.
//
// Step is the heart of the package: it ticks every owned object
// exactly once and replaces the stored aggregate with the new tick's
// result. Ticks are strictly sequential at the graph level: Step
// holds the graph lock for its whole duration, so membership changes
// and aggregate reads serialize against it and never observe a
// half-finished tick. Within one tick the per-object updates are an
// independent map over the population; WithWorkers opts into running
// that map concurrently, with every object still touched by exactly
// one worker and the aggregate assembled only after all workers have
// finished.
//
// One object failing its tick never aborts the others: the failure is
// recorded against that object's root in the result's Failed map and
// the remaining population ticks normally.
package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/csmangum/TimeBandit/pkg/model"
	"github.com/csmangum/TimeBandit/pkg/sim"
)

// ErrDuplicateRoot is returned by AddObject when the root is taken.
var ErrDuplicateRoot = errors.New("graph: duplicate root")

// ErrUnknownRoot is returned when an operation names an absent root.
var ErrUnknownRoot = errors.New("graph: unknown root")

// Graph is a directed graph of simulated objects. Safe for concurrent
// use: all operations serialize behind one mutex, and Step holds it
// until the tick's aggregate is final.
type Graph struct {
	mu      sync.Mutex
	objects map[string]*sim.Object
	edges   map[string]map[string]bool
	last    model.StepResult
	ticks   uint64
	workers int
}

// Option configures a graph at construction.
type Option func(*Graph)

// WithWorkers enables concurrent object updates within a tick, using
// at most n workers. n <= 1 keeps the sequential default.
func WithWorkers(n int) Option {
	return func(g *Graph) { g.workers = n }
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		objects: make(map[string]*sim.Object),
		edges:   make(map[string]map[string]bool),
		last:    model.NewStepResult(0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddObject adds an object to the graph. Fails with ErrDuplicateRoot
// if an object with the same root is already a member.
func (g *Graph) AddObject(obj *sim.Object) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	root := obj.Root()
	if _, ok := g.objects[root]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRoot, root)
	}
	g.objects[root] = obj
	return nil
}

// RemoveObject removes an object, its incident edges, and its entry in
// the last aggregate. Fails with ErrUnknownRoot if absent.
func (g *Graph) RemoveObject(root string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.objects[root]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoot, root)
	}
	delete(g.objects, root)
	delete(g.edges, root)
	for _, targets := range g.edges {
		delete(targets, root)
	}
	delete(g.last.Succeeded, root)
	delete(g.last.Failed, root)
	return nil
}

// Object returns the object with the given root.
func (g *Graph) Object(root string) (*sim.Object, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	obj, ok := g.objects[root]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoot, root)
	}
	return obj, nil
}

// Connect adds a directed edge from one root to another. Both ends
// must be members. Adding an existing edge is a no-op.
func (g *Graph) Connect(from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, root := range []string{from, to} {
		if _, ok := g.objects[root]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRoot, root)
		}
	}
	if g.edges[from] == nil {
		g.edges[from] = make(map[string]bool)
	}
	g.edges[from][to] = true
	return nil
}

// Disconnect removes a directed edge. Fails with ErrUnknownRoot if
// either end is not a member; removing an absent edge is a no-op.
func (g *Graph) Disconnect(from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, root := range []string{from, to} {
		if _, ok := g.objects[root]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRoot, root)
		}
	}
	delete(g.edges[from], to)
	return nil
}

// Neighbors returns the roots reachable from root by one outgoing
// edge, sorted.
func (g *Graph) Neighbors(root string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.objects[root]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoot, root)
	}
	out := make([]string, 0, len(g.edges[root]))
	for to := range g.edges[root] {
		out = append(out, to)
	}
	sort.Strings(out)
	return out, nil
}

// Edges returns every directed edge, sorted by (from, to).
func (g *Graph) Edges() []model.Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Edge
	for from, targets := range g.edges {
		for to := range targets {
			out = append(out, model.Edge{From: from, To: to})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Roots returns the member roots, sorted. The sorted order is also the
// order Step visits objects in, making a run deterministic.
func (g *Graph) Roots() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sortedRootsLocked()
}

// Len returns the number of member objects.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.objects)
}

// Ticks returns the number of completed Step calls.
func (g *Graph) Ticks() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ticks
}

// LastAggregate returns a copy of the most recent tick's result.
func (g *Graph) LastAggregate() model.StepResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last.Clone()
}

// Step ticks every member object exactly once and returns the new
// aggregate. A failing object is recorded in the result's Failed map
// under its root and does not abort the others. Context cancellation
// or timeout is likewise contained per object: an object whose tick
// observes the cancelled context fails individually.
//
// The stored aggregate is replaced wholesale; callers of LastAggregate
// see either the previous tick's complete result or this one, never a
// mixture.
func (g *Graph) Step(ctx context.Context) model.StepResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.ticks++
	roots := g.sortedRootsLocked()
	result := model.NewStepResult(g.ticks)

	type outcome struct {
		snap model.Snapshot
		err  error
	}
	outcomes := make([]outcome, len(roots))

	if g.workers > 1 && len(roots) > 1 {
		var eg errgroup.Group
		eg.SetLimit(g.workers)
		for i, root := range roots {
			i := i
			obj := g.objects[root]
			eg.Go(func() error {
				snap, err := obj.Tick(ctx)
				outcomes[i] = outcome{snap: snap, err: err}
				return nil
			})
		}
		// Goroutines never return errors; Wait is the tick barrier.
		_ = eg.Wait()
	} else {
		for i, root := range roots {
			snap, err := g.objects[root].Tick(ctx)
			outcomes[i] = outcome{snap: snap, err: err}
		}
	}

	for i, root := range roots {
		if outcomes[i].err != nil {
			result.Failed[root] = outcomes[i].err.Error()
			continue
		}
		result.Succeeded[root] = outcomes[i].snap.Clone()
	}

	g.last = result
	return result.Clone()
}

func (g *Graph) sortedRootsLocked() []string {
	roots := make([]string, 0, len(g.objects))
	for root := range g.objects {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}
