package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/csmangum/TimeBandit/pkg/model"
)

// TestStoreImplementsInterface verifies at runtime that *Store satisfies
// StoreInterface by calling every method on a real archive.
func TestStoreImplementsInterface(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	// Use the interface type to verify all methods are callable.
	var iface StoreInterface = s

	runID, err := iface.BeginRun("iface-test")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	result := model.NewStepResult(1)
	result.Succeeded["a"] = model.Snapshot{
		Root: "a", Temporal: "a.1.0", Cycle: 1, StepSize: 1,
		Payload:  map[string]any{"n": float64(1)},
		Recorded: time.Now().UTC(),
	}
	if err := iface.ArchiveStep(runID, result); err != nil {
		t.Fatalf("ArchiveStep: %v", err)
	}

	last, err := iface.LastRun()
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil || last.ID != runID {
		t.Fatalf("LastRun: got %+v, want run %d", last, runID)
	}

	runs, err := iface.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}

	snaps, err := iface.ListSnapshots(runID, "", 10)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("expected 1 snapshot, got %d", len(snaps))
	}

	if n := iface.CountSnapshots(runID); n != 1 {
		t.Errorf("CountSnapshots: got %d, want 1", n)
	}

	if err := iface.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
