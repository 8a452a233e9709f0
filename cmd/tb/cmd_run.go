package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/csmangum/TimeBandit/pkg/model"
)

// runSummary is the JSON shape of one run's outcome.
type runSummary struct {
	RunID    int64             `json:"run_id,omitempty"`
	Scenario string            `json:"scenario"`
	Ticks    uint64            `json:"ticks"`
	Objects  int               `json:"objects"`
	Failures map[string]string `json:"failures,omitempty"`
	Final    []model.Snapshot  `json:"final,omitempty"`
	Elapsed  string            `json:"elapsed"`
}

func (a *app) cmdRun(args []string) int {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	scenarioPath := flags.String("scenario", "", "scenario YAML file")
	ticks := flags.Uint64("ticks", 10, "number of ticks to execute")
	workers := flags.Int("workers", 0, "concurrent object updates per tick")
	archive := flags.Bool("archive", true, "write snapshots to the archive")
	timeout := flags.Duration("timeout", 0, "per-tick timeout (0 = none)")
	logLevel := flags.String("log-level", "info", "run-loop log level: info or debug")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	path, err := a.resolveScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tb: %v\n", err)
		return 1
	}
	sc, err := loadScenario(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tb: run: %v\n", err)
		return 1
	}
	g, err := sc.build(*workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tb: run: %v\n", err)
		return 1
	}

	var runID int64
	if *archive {
		runID, err = a.store.BeginRun(scenarioLabel(sc, path))
		if err != nil {
			fmt.Fprintf(os.Stderr, "tb: run: %v\n", err)
			return 1
		}
	}

	log := newRunLogger(*logLevel, os.Stderr)
	log.Info("run starting",
		"scenario", scenarioLabel(sc, path),
		"objects", g.Len(),
		"ticks", *ticks,
		"workers", *workers,
		"archive", *archive,
	)

	start := time.Now()
	failures := make(map[string]string)
	for i := uint64(0); i < *ticks; i++ {
		ctx := context.Background()
		var cancel context.CancelFunc = func() {}
		if *timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, *timeout)
		}
		result := g.Step(ctx)
		cancel()

		log.Debug("tick complete",
			"tick", result.Tick,
			"succeeded", len(result.Succeeded),
			"failed", len(result.Failed),
		)
		for root, msg := range result.Failed {
			log.Info("object tick failed", "tick", result.Tick, "root", root, "error", msg)
			failures[root] = msg
		}

		if *archive {
			if err := a.store.ArchiveStep(runID, result); err != nil {
				fmt.Fprintf(os.Stderr, "tb: run: archive tick %d: %v\n", result.Tick, err)
				return 1
			}
		}
	}
	elapsed := time.Since(start)

	final := finalSnapshots(g.LastAggregate())
	summary := runSummary{
		RunID:    runID,
		Scenario: scenarioLabel(sc, path),
		Ticks:    g.Ticks(),
		Objects:  g.Len(),
		Failures: failures,
		Final:    final,
		Elapsed:  elapsed.Round(time.Microsecond).String(),
	}

	if *jsonOut {
		printJSON(summary)
	} else {
		fmt.Printf("run complete: %d objects, %d ticks in %s\n",
			summary.Objects, summary.Ticks, summary.Elapsed)
		for _, snap := range final {
			fmt.Printf("  %-12s cycle=%-4d step=%-3d payload=%v\n",
				snap.Root, snap.Cycle, snap.Step, snap.Payload)
		}
		if len(failures) > 0 {
			fmt.Println("failures:")
			roots := make([]string, 0, len(failures))
			for root := range failures {
				roots = append(roots, root)
			}
			sort.Strings(roots)
			for _, root := range roots {
				fmt.Printf("  %-12s %s\n", root, failures[root])
			}
		}
		if *archive {
			fmt.Printf("archived as run %d (%d snapshots)\n",
				runID, a.store.CountSnapshots(runID))
		}
	}

	if len(failures) > 0 {
		return 2
	}
	return 0
}

// finalSnapshots flattens the last aggregate into a root-sorted slice.
func finalSnapshots(agg model.StepResult) []model.Snapshot {
	out := make([]model.Snapshot, 0, len(agg.Succeeded))
	for _, snap := range agg.Succeeded {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Root < out[j].Root })
	return out
}
