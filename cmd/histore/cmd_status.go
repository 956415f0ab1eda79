package main

import (
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"
)

func (a *app) cmdStatus(args []string) int {
	flags := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 2
	}

	stats := a.archive.Stats()
	fmt.Printf("version:    %d\n", a.archive.Version())
	fmt.Printf("rows:       %d (next id %d)\n", stats.Rows, stats.NextRowID)
	fmt.Printf("columns:    %d (next id %d)\n", stats.Columns, stats.NextColID)
	fmt.Printf("snapshots:  %d\n", stats.Snapshots)
	fmt.Printf("store size: %s\n", humanize.Bytes(uint64(stats.StoreBytes)))
	return 0
}
