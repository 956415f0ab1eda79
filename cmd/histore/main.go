// Command histore is a CLI over a nested-merge temporal archive: commit
// successive CSV snapshots, check out any past version, inspect per-row
// provenance, and roll back mistakes.
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--help", "-h", "help":
		printUsage()
		return
	case "--version", "-v", "version":
		fmt.Println("histore", version)
		return
	}

	switch os.Args[1] {
	case "init":
		os.Exit(cmdInit(os.Args[2:]))
	}

	a, err := openApp()
	if err != nil {
		fatal("%v", err)
	}
	defer a.Close()

	switch os.Args[1] {
	case "commit":
		os.Exit(a.cmdCommit(os.Args[2:]))
	case "checkout":
		os.Exit(a.cmdCheckout(os.Args[2:]))
	case "log":
		os.Exit(a.cmdLog(os.Args[2:]))
	case "rollback":
		os.Exit(a.cmdRollback(os.Args[2:]))
	case "status":
		os.Exit(a.cmdStatus(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "histore: unknown command %q\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Run 'histore --help' for usage.")
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Print(`histore — a temporal archive for tabular snapshots

Usage:
  histore <command> [flags]

Commands:
  init [--backend NAME] [--keys COLS]   Create a new archive
  commit <csv-file> [--desc MSG]        Merge a CSV snapshot as a new version
  checkout <version> [--csv]            Reconstruct a version as a table
  log [--diff]                          List committed versions (and the latest cell changes)
  rollback <version>                    Discard every version after v
  status                                Show row/column/version counts

Environment:
  HISTORE_DB        Archive path (default: .histore)
  HISTORE_BACKEND   file|bolt|sqlite|memory (default: file, init only)

Exit codes:
  0  success
  1  error
  2  usage error
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "histore: "+format+"\n", args...)
	os.Exit(1)
}
