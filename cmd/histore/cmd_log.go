package main

import (
	"flag"
	"fmt"
	"sort"

	"github.com/nyu-vida/histore"
)

func (a *app) cmdLog(args []string) int {
	flags := flag.NewFlagSet("log", flag.ContinueOnError)
	diff := flags.Bool("diff", false, "show per-cell changes between the two most recent versions")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	for _, snap := range a.archive.Snapshots() {
		desc := snap.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Printf("v%-4d %-8s %s  %s\n",
			snap.Version, snap.Action, snap.CreatedAt.Format("2006-01-02 15:04:05"), desc)
	}

	if *diff {
		a.printLatestDiff()
	}
	return 0
}

// printLatestDiff reports, row by row, which cells and positions changed
// between the archive's two most recent versions, via ArchiveValue.Diff.
func (a *app) printLatestDiff() {
	v1 := a.archive.Version()
	v0 := v1 - 1
	if v0 < 0 {
		fmt.Println("\n(only one version committed, nothing to diff)")
		return
	}

	fmt.Printf("\nchanges between v%d and v%d:\n", v0, v1)
	for _, hist := range a.archive.Reader() {
		if d := hist.Position.Diff(v0, v1); d != nil {
			fmt.Printf("  row %d: position %s -> %s\n", hist.ID, d.Old, d.New)
		}

		cols := make([]histore.ColumnID, 0, len(hist.Cells))
		for col := range hist.Cells {
			cols = append(cols, col)
		}
		sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })

		for _, col := range cols {
			d := hist.Cells[col].Diff(v0, v1)
			if d == nil {
				continue
			}
			name, ok := a.archive.ColumnNameAt(col, v1)
			if !ok {
				name, _ = a.archive.ColumnNameAt(col, v0)
			}
			fmt.Printf("  row %d: %s: %s -> %s\n", hist.ID, name, d.Old, d.New)
		}
	}
}
