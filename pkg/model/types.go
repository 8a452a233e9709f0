// Package model defines the core value types for TimeBandit.
//
// TimeBandit advances a directed graph of stateful objects one logical
// tick at a time. Two value types cross every package boundary:
//
//   - Snapshot: an immutable record of one object's state at one tick,
//     stamped with the object's root identity, the temporal identity of
//     that tick, and the clock reading that produced it.
//
//   - StepResult: the graph-level aggregate of one tick: every
//     succeeding object's snapshot keyed by root, plus the failures
//     that were contained to their own objects.
//
// Both are plain values: they carry no references back into the live
// objects that produced them, so they can be copied into history
// buffers, aggregates, and archives without aliasing.
package model

import "time"

// Snapshot captures one object's state at one tick. The envelope fields
// (Root through StepSize) are stamped by the core; Payload carries the
// behavior-specific state and is opaque to the core.
type Snapshot struct {
	Root     string         `json:"root"`
	Temporal string         `json:"temporal"`
	Cycle    uint64         `json:"cycle"`
	Step     uint64         `json:"step"`
	StepSize uint64         `json:"step_size"`
	Payload  map[string]any `json:"payload,omitempty"`
	Recorded time.Time      `json:"recorded_at"`
}

// Clone returns a copy with its own payload map, safe to hand across
// ownership boundaries. Payload values are assumed to be plain data
// (numbers, strings, bools) as produced by behaviors.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Payload != nil {
		out.Payload = make(map[string]any, len(s.Payload))
		for k, v := range s.Payload {
			out.Payload[k] = v
		}
	}
	return out
}

// Edge is a directed relationship between two object roots. Edges are
// bookkeeping for the owning application; the tick loop never traverses
// them.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StepResult is the aggregate outcome of one graph tick. Succeeded maps
// root identities to that tick's snapshots; Failed maps the roots whose
// behavior failed to the error text. A root appears in exactly one of
// the two maps. The graph replaces its stored result wholesale every
// tick; StepResult values are never merged or mutated in place.
type StepResult struct {
	Tick      uint64              `json:"tick"`
	Succeeded map[string]Snapshot `json:"succeeded"`
	Failed    map[string]string   `json:"failed,omitempty"`
}

// NewStepResult returns an empty result for the given tick number.
func NewStepResult(tick uint64) StepResult {
	return StepResult{
		Tick:      tick,
		Succeeded: make(map[string]Snapshot),
		Failed:    make(map[string]string),
	}
}

// OK reports whether every object ticked successfully.
func (r StepResult) OK() bool { return len(r.Failed) == 0 }

// Clone deep-copies the result, including each snapshot's payload.
func (r StepResult) Clone() StepResult {
	out := NewStepResult(r.Tick)
	for root, snap := range r.Succeeded {
		out.Succeeded[root] = snap.Clone()
	}
	for root, msg := range r.Failed {
		out.Failed[root] = msg
	}
	return out
}
