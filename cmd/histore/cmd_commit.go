package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nyu-vida/histore"
)

func (a *app) cmdCommit(args []string) int {
	flags := flag.NewFlagSet("commit", flag.ContinueOnError)
	desc := flags.String("desc", "", "commit description")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: histore commit <csv-file> [--desc MSG]")
		return 2
	}

	doc, err := histore.NewCSVDocument(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "histore: commit: %v\n", err)
		return 1
	}
	defer doc.Close()

	v, err := a.archive.Commit(doc, *desc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "histore: commit: %v\n", err)
		return 1
	}
	fmt.Printf("committed version %d\n", v)
	return 0
}
