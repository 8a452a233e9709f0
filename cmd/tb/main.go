// Command tb is the TimeBandit CLI: a discrete-tick simulation driver
// over a directed graph of stateful objects, with a rolling per-object
// history window and a SQLite snapshot archive.
package main

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--help", "-h", "help":
		printUsage()
		return
	case "--version", "-v", "version":
		fmt.Println("tb", version)
		return
	}

	a, err := newApp()
	if err != nil {
		fatal("%v", err)
	}
	defer a.Close()

	switch os.Args[1] {
	case "run":
		os.Exit(a.cmdRun(os.Args[2:]))
	case "inspect":
		os.Exit(a.cmdInspect(os.Args[2:]))
	case "runs":
		os.Exit(a.cmdRuns(os.Args[2:]))

	default:
		fmt.Fprintf(os.Stderr, "tb: unknown command %q\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Run 'tb --help' for usage.")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`tb - discrete-tick simulation over a graph of stateful objects

Each object carries a relative cycle/step clock, a root identity plus a
per-tick temporal identity, and a bounded window of recent snapshots.
A run steps every object once per tick and archives the results.

Usage:
  tb <command> [flags]

Commands:
  run [--scenario f] [--ticks N]   Step a scenario graph and archive snapshots
  inspect [--run ID] [--root R]    Show archived snapshots for a run
  runs [--limit N]                 List archived runs

Run flags:
  --ticks N        Number of ticks to execute (default 10)
  --workers N      Concurrent object updates per tick (default sequential)
  --archive=false  Skip writing snapshots to the archive
  --timeout D      Per-tick timeout, e.g. 500ms (default none)
  --log-level L    Run-loop log level: info or debug (default info)

Environment:
  TIMEBANDIT_DB        Archive database path (default: .timebandit/archive.db)
  TIMEBANDIT_SCENARIO  Default scenario file (avoids passing --scenario)

All commands support --json for machine-readable output.

Exit codes:
  0  success
  1  error
  2  run finished with object failures
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "tb: "+format+"\n", args...)
	os.Exit(1)
}
