package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/csmangum/TimeBandit/pkg/store"
)

const (
	defaultDir = ".timebandit"
	defaultDB  = ".timebandit/archive.db"
)

// app holds shared state for all CLI subcommands.
type app struct {
	store    store.StoreInterface
	scenario string // default scenario from TIMEBANDIT_SCENARIO
}

// newApp opens the archive database and resolves the default scenario
// path. Creates the .timebandit/ directory if using the default DB path.
func newApp() (*app, error) {
	dbPath := envOr("TIMEBANDIT_DB", defaultDB)
	if dbPath == defaultDB {
		if err := os.MkdirAll(defaultDir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", defaultDir, err)
		}
	}
	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive %q: %w", dbPath, err)
	}
	return &app{
		store:    s,
		scenario: envOr("TIMEBANDIT_SCENARIO", ""),
	}, nil
}

// Close releases the archive connection.
func (a *app) Close() { a.store.Close() }

// resolveScenario returns the scenario path from the flag (if non-empty),
// falling back to the TIMEBANDIT_SCENARIO environment variable.
func (a *app) resolveScenario(flagVal string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	if a.scenario != "" {
		return a.scenario, nil
	}
	return "", fmt.Errorf("no scenario: pass --scenario or set TIMEBANDIT_SCENARIO")
}

// resolveRun returns the run ID to inspect. A flag value of 0 (the
// sentinel) means "the most recent archived run".
func (a *app) resolveRun(flagVal int64) (int64, error) {
	if flagVal > 0 {
		return flagVal, nil
	}
	last, err := a.store.LastRun()
	if err != nil {
		return 0, fmt.Errorf("look up last run: %w", err)
	}
	if last == nil {
		return 0, fmt.Errorf("archive is empty: run a scenario first")
	}
	return last.ID, nil
}

// newRunLogger builds the slog logger the run loop reports through.
// Writes to stderr so it never interferes with --json stdout output.
func newRunLogger(level string, w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	if strings.EqualFold(level, "debug") {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// scenarioLabel returns the name recorded in the archive for a run:
// the scenario's declared name when present, otherwise the file name.
func scenarioLabel(sc *Scenario, path string) string {
	if sc.Name != "" {
		return sc.Name
	}
	return filepath.Base(path)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
