package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nyu-vida/histore"
)

func cmdInit(args []string) int {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	backendName := flags.String("backend", envOr("HISTORE_BACKEND", "file"), "file|bolt|sqlite|memory")
	keys := flags.String("keys", "", "comma-separated key columns (omit for an un-keyed archive)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	backend, err := parseBackend(*backendName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "histore: init: %v\n", err)
		return 2
	}

	path := envOr("HISTORE_DB", defaultDB)
	a, err := histore.Open(path, histore.Options{
		Backend:    backend,
		KeyColumns: splitCommaList(*keys),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "histore: init: %v\n", err)
		return 1
	}
	defer a.Close()

	fmt.Printf("initialized archive at %s\n", path)
	return 0
}
