package main

import (
	"flag"
	"fmt"
	"os"
)

func (a *app) cmdInspect(args []string) int {
	flags := flag.NewFlagSet("inspect", flag.ContinueOnError)
	runID := flags.Int64("run", 0, "run ID (default: most recent)")
	root := flags.String("root", "", "narrow to one object root")
	last := flags.Int("last", 20, "number of most recent snapshots")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	id, err := a.resolveRun(*runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tb: inspect: %v\n", err)
		return 1
	}

	snaps, err := a.store.ListSnapshots(id, *root, *last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tb: inspect: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{
			"run_id":    id,
			"snapshots": snaps,
		})
		return 0
	}

	if len(snaps) == 0 {
		fmt.Printf("run %d: no snapshots", id)
		if *root != "" {
			fmt.Printf(" for root %q", *root)
		}
		fmt.Println()
		return 0
	}

	fmt.Printf("run %d (%d snapshots shown):\n", id, len(snaps))
	for _, s := range snaps {
		fmt.Printf("  tick=%-4d %-24s cycle=%-4d step=%-3d payload=%v\n",
			s.Tick, s.Snapshot.Temporal, s.Snapshot.Cycle, s.Snapshot.Step,
			s.Snapshot.Payload)
	}
	return 0
}
