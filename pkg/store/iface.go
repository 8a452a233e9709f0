// iface.go defines the StoreInterface for dependency injection and testing.
//
// The concrete *Store type satisfies this interface. Code that depends
// on the archive (the cmd layer, mainly) can accept StoreInterface
// instead of *Store, enabling mock injection in tests.
package store

import "github.com/csmangum/TimeBandit/pkg/model"

// StoreInterface defines the full set of archive operations.
// The concrete *Store type implements this interface.
type StoreInterface interface {
	// Close closes the database connection.
	Close() error

	// --- Runs ---

	// BeginRun records the start of a run and returns its ID.
	BeginRun(scenario string) (int64, error)

	// LastRun returns the most recently started run, or nil if none exist.
	LastRun() (*Run, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]Run, error)

	// --- Snapshots ---

	// ArchiveStep records every succeeded snapshot of one tick's result.
	ArchiveStep(runID int64, result model.StepResult) error

	// ListSnapshots returns archived snapshots in tick order, oldest first.
	ListSnapshots(runID int64, root string, limit int) ([]ArchivedSnapshot, error)

	// CountSnapshots returns the number of archived snapshots for a run.
	CountSnapshots(runID int64) int64
}

// Compile-time check that *Store implements StoreInterface.
var _ StoreInterface = (*Store)(nil)
