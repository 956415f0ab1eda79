package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

func (a *app) cmdRollback(args []string) int {
	flags := flag.NewFlagSet("rollback", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: histore rollback <version>")
		return 2
	}
	version, err := strconv.Atoi(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "histore: rollback: invalid version %q\n", flags.Arg(0))
		return 2
	}

	if err := a.archive.Rollback(version); err != nil {
		fmt.Fprintf(os.Stderr, "histore: rollback: %v\n", err)
		return 1
	}
	fmt.Printf("rolled back to version %d\n", version)
	return 0
}
