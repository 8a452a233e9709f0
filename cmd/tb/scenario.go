// scenario.go loads and validates YAML scenario files.
//
// A scenario declares the population of a run: the objects (name,
// behavior, clock and history settings) and the directed edges between
// them. Building a scenario produces a ready-to-step graph.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/csmangum/TimeBandit/pkg/graph"
	"github.com/csmangum/TimeBandit/pkg/sim"
)

// Scenario is the top-level YAML document.
type Scenario struct {
	Name     string         `yaml:"name"`
	Defaults ObjectDefaults `yaml:"defaults"`
	Objects  []ObjectSpec   `yaml:"objects"`
	Edges    []EdgeSpec     `yaml:"edges"`
}

// ObjectDefaults apply to every object that leaves a field unset.
type ObjectDefaults struct {
	StepSize uint64 `yaml:"step_size"`
	History  int    `yaml:"history"`
}

// ObjectSpec declares one object.
type ObjectSpec struct {
	Name     string `yaml:"name"`
	Behavior string `yaml:"behavior"` // "counter" or "walk"
	StepSize uint64 `yaml:"step_size"`
	History  int    `yaml:"history"`
	Start    int64  `yaml:"start"` // initial count or walk position
	Seed     int64  `yaml:"seed"`  // walk only
}

// EdgeSpec declares one directed edge by object name.
type EdgeSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// loadScenario reads and validates a scenario file.
func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", path, err)
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if len(sc.Objects) == 0 {
		return fmt.Errorf("no objects declared")
	}
	names := make(map[string]bool, len(sc.Objects))
	for i, obj := range sc.Objects {
		if obj.Name == "" {
			return fmt.Errorf("object %d: missing name", i)
		}
		if names[obj.Name] {
			return fmt.Errorf("duplicate object name %q", obj.Name)
		}
		names[obj.Name] = true
		switch obj.Behavior {
		case "counter", "walk":
		case "":
			return fmt.Errorf("object %q: missing behavior", obj.Name)
		default:
			return fmt.Errorf("object %q: unknown behavior %q", obj.Name, obj.Behavior)
		}
	}
	for _, e := range sc.Edges {
		if !names[e.From] {
			return fmt.Errorf("edge %s->%s: unknown object %q", e.From, e.To, e.From)
		}
		if !names[e.To] {
			return fmt.Errorf("edge %s->%s: unknown object %q", e.From, e.To, e.To)
		}
	}
	return nil
}

// build constructs the graph the scenario describes. workers > 1
// enables concurrent object updates within each tick.
func (sc *Scenario) build(workers int) (*graph.Graph, error) {
	var opts []graph.Option
	if workers > 1 {
		opts = append(opts, graph.WithWorkers(workers))
	}
	g := graph.New(opts...)

	for _, spec := range sc.Objects {
		behavior, err := sc.behaviorFor(spec)
		if err != nil {
			return nil, err
		}
		stepSize := spec.StepSize
		if stepSize == 0 {
			stepSize = sc.Defaults.StepSize
		}
		if stepSize == 0 {
			stepSize = sim.DefaultStepSize
		}
		capacity := spec.History
		if capacity == 0 {
			capacity = sc.Defaults.History
		}
		if capacity == 0 {
			capacity = sim.DefaultHistory
		}

		obj, err := sim.New(behavior,
			sim.WithRoot(spec.Name),
			sim.WithStepSize(stepSize),
			sim.WithHistory(capacity),
		)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", spec.Name, err)
		}
		if err := g.AddObject(obj); err != nil {
			return nil, err
		}
	}

	for _, e := range sc.Edges {
		if err := g.Connect(e.From, e.To); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (sc *Scenario) behaviorFor(spec ObjectSpec) (sim.Behavior, error) {
	switch spec.Behavior {
	case "counter":
		return sim.NewCounter(spec.Start), nil
	case "walk":
		return sim.NewRandomWalk(spec.Seed, spec.Start), nil
	default:
		// validate() rejects anything else before build runs.
		return nil, fmt.Errorf("object %q: unknown behavior %q", spec.Name, spec.Behavior)
	}
}
