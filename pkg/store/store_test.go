package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/csmangum/TimeBandit/pkg/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func stepResult(tick uint64, snaps ...model.Snapshot) model.StepResult {
	r := model.NewStepResult(tick)
	for _, s := range snaps {
		r.Succeeded[s.Root] = s
	}
	return r
}

func TestBeginRunAndLastRun(t *testing.T) {
	s := newTestStore(t)

	if r, err := s.LastRun(); err != nil || r != nil {
		t.Fatalf("LastRun on empty archive: got %v/%v, want nil/nil", r, err)
	}

	id1, err := s.BeginRun("scenario-a.yaml")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	id2, err := s.BeginRun("scenario-b.yaml")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("run IDs should increase: %d then %d", id1, id2)
	}

	last, err := s.LastRun()
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last.ID != id2 || last.Scenario != "scenario-b.yaml" {
		t.Fatalf("LastRun: got %+v, want run %d scenario-b.yaml", last, id2)
	}
	if last.Started.IsZero() {
		t.Fatal("LastRun: zero started_at")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"one", "two", "three"} {
		if _, err := s.BeginRun(name); err != nil {
			t.Fatalf("BeginRun(%s): %v", name, err)
		}
	}
	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns(2): got %d runs, want 2", len(runs))
	}
	if runs[0].Scenario != "three" || runs[1].Scenario != "two" {
		t.Fatalf("ListRuns order: got %s, %s; want three, two", runs[0].Scenario, runs[1].Scenario)
	}
}

func TestArchiveStepRoundTrip(t *testing.T) {
	s := newTestStore(t)
	runID, err := s.BeginRun("round-trip")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	snap := model.Snapshot{
		Root:     "a",
		Temporal: "a.1.1",
		Cycle:    1,
		Step:     1,
		StepSize: 2,
		Payload:  map[string]any{"count": float64(3), "label": "hot"},
		Recorded: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.ArchiveStep(runID, stepResult(1, snap)); err != nil {
		t.Fatalf("ArchiveStep: %v", err)
	}

	got, err := s.ListSnapshots(runID, "", 10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListSnapshots: got %d rows, want 1", len(got))
	}
	a := got[0]
	if a.Tick != 1 {
		t.Fatalf("tick: got %d, want 1", a.Tick)
	}
	if a.Snapshot.Temporal != "a.1.1" || a.Snapshot.Cycle != 1 || a.Snapshot.Step != 1 || a.Snapshot.StepSize != 2 {
		t.Fatalf("envelope mismatch: %+v", a.Snapshot)
	}
	// JSON numbers come back as float64.
	if a.Snapshot.Payload["count"] != float64(3) || a.Snapshot.Payload["label"] != "hot" {
		t.Fatalf("payload mismatch: %v", a.Snapshot.Payload)
	}
	if !a.Snapshot.Recorded.Equal(snap.Recorded) {
		t.Fatalf("recorded_at: got %v, want %v", a.Snapshot.Recorded, snap.Recorded)
	}
}

func TestArchiveStepEmptyResultIsNoop(t *testing.T) {
	s := newTestStore(t)
	runID, err := s.BeginRun("empty")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := s.ArchiveStep(runID, model.NewStepResult(1)); err != nil {
		t.Fatalf("ArchiveStep with no successes: %v", err)
	}
	if n := s.CountSnapshots(runID); n != 0 {
		t.Fatalf("CountSnapshots: got %d, want 0", n)
	}
}

func TestListSnapshotsFilterByRoot(t *testing.T) {
	s := newTestStore(t)
	runID, err := s.BeginRun("filter")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	for tick := uint64(1); tick <= 3; tick++ {
		r := model.NewStepResult(tick)
		for _, root := range []string{"a", "b"} {
			r.Succeeded[root] = model.Snapshot{
				Root:     root,
				Temporal: fmt.Sprintf("%s.%d.0", root, tick),
				Cycle:    tick,
				Step:     0,
				StepSize: 1,
				Recorded: time.Now().UTC(),
			}
		}
		if err := s.ArchiveStep(runID, r); err != nil {
			t.Fatalf("ArchiveStep tick %d: %v", tick, err)
		}
	}

	got, err := s.ListSnapshots(runID, "a", 10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("filtered rows: got %d, want 3", len(got))
	}
	for i, a := range got {
		if a.Snapshot.Root != "a" {
			t.Fatalf("row %d: root %q, want a", i, a.Snapshot.Root)
		}
		if a.Tick != uint64(i+1) {
			t.Fatalf("row %d: tick %d, want %d (oldest first)", i, a.Tick, i+1)
		}
	}
}

func TestListSnapshotsLimitKeepsNewest(t *testing.T) {
	s := newTestStore(t)
	runID, err := s.BeginRun("limit")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	for tick := uint64(1); tick <= 5; tick++ {
		r := model.NewStepResult(tick)
		r.Succeeded["a"] = model.Snapshot{
			Root: "a", Temporal: fmt.Sprintf("a.%d.0", tick), Cycle: tick, StepSize: 1,
			Recorded: time.Now().UTC(),
		}
		if err := s.ArchiveStep(runID, r); err != nil {
			t.Fatalf("ArchiveStep tick %d: %v", tick, err)
		}
	}

	got, err := s.ListSnapshots(runID, "a", 2)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limited rows: got %d, want 2", len(got))
	}
	if got[0].Tick != 4 || got[1].Tick != 5 {
		t.Fatalf("limit should keep newest ticks in order: got %d, %d", got[0].Tick, got[1].Tick)
	}
}

func TestCountSnapshots(t *testing.T) {
	s := newTestStore(t)
	runID, err := s.BeginRun("count")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	r := model.NewStepResult(1)
	for _, root := range []string{"a", "b", "c"} {
		r.Succeeded[root] = model.Snapshot{
			Root: root, Temporal: root + ".1.0", Cycle: 1, StepSize: 1,
			Recorded: time.Now().UTC(),
		}
	}
	if err := s.ArchiveStep(runID, r); err != nil {
		t.Fatalf("ArchiveStep: %v", err)
	}
	if n := s.CountSnapshots(runID); n != 3 {
		t.Fatalf("CountSnapshots: got %d, want 3", n)
	}
	if n := s.CountSnapshots(runID + 99); n != 0 {
		t.Fatalf("CountSnapshots for absent run: got %d, want 0", n)
	}
}

func TestRunsAreIsolated(t *testing.T) {
	s := newTestStore(t)
	run1, err := s.BeginRun("first")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	run2, err := s.BeginRun("second")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	r := model.NewStepResult(1)
	r.Succeeded["a"] = model.Snapshot{
		Root: "a", Temporal: "a.1.0", Cycle: 1, StepSize: 1, Recorded: time.Now().UTC(),
	}
	if err := s.ArchiveStep(run1, r); err != nil {
		t.Fatalf("ArchiveStep: %v", err)
	}

	if n := s.CountSnapshots(run2); n != 0 {
		t.Fatalf("run2 should be empty, got %d snapshots", n)
	}
	got, err := s.ListSnapshots(run2, "", 10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("run2 rows: got %d, want 0", len(got))
	}
}
