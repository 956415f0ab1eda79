package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
)

func (a *app) cmdCheckout(args []string) int {
	flags := flag.NewFlagSet("checkout", flag.ContinueOnError)
	asCSV := flags.Bool("csv", false, "write the table as CSV instead of a padded text table")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: histore checkout <version> [--csv]")
		return 2
	}
	version, err := strconv.Atoi(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "histore: checkout: invalid version %q\n", flags.Arg(0))
		return 2
	}

	table, err := a.archive.Checkout(version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "histore: checkout: %v\n", err)
		return 1
	}

	if *asCSV {
		w := csv.NewWriter(os.Stdout)
		_ = w.Write(table.Columns)
		for _, row := range table.Rows {
			record := make([]string, len(row.Values))
			for i, v := range row.Values {
				record[i] = v.String()
			}
			_ = w.Write(record)
		}
		w.Flush()
		return 0
	}

	widths := make([]int, len(table.Columns))
	for i, c := range table.Columns {
		widths[i] = len(c)
	}
	for _, row := range table.Rows {
		for i, v := range row.Values {
			if n := len(v.String()); n > widths[i] {
				widths[i] = n
			}
		}
	}
	printRow := func(cells []string) {
		for i, c := range cells {
			fmt.Printf("%-*s  ", widths[i], c)
		}
		fmt.Println()
	}
	printRow(table.Columns)
	for _, row := range table.Rows {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = v.String()
		}
		printRow(cells)
	}
	return 0
}
