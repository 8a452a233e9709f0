package main

import (
	"flag"
	"fmt"
	"os"
)

func (a *app) cmdRuns(args []string) int {
	flags := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := flags.Int("limit", 20, "maximum number of runs to list")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	runs, err := a.store.ListRuns(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tb: runs: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(runs)
		return 0
	}

	if len(runs) == 0 {
		fmt.Println("no archived runs")
		return 0
	}
	for _, r := range runs {
		fmt.Printf("  run %-4d %-24s started=%s snapshots=%d\n",
			r.ID, r.Scenario, r.Started.Format("2006-01-02 15:04:05"),
			a.store.CountSnapshots(r.ID))
	}
	return 0
}
