package histore

import "sort"

// CheckoutRow is one row of a reconstructed table: its stable RowID and
// its cell values aligned with the column list CheckoutTable.Columns
// returns.
type CheckoutRow struct {
	ID     RowID
	Values []Scalar
}

// CheckoutTable is a version reconstructed as an ordered table.
type CheckoutTable struct {
	Columns []string
	Rows    []CheckoutRow
}

// Checkout reconstructs version as a table: the columns alive at that
// version in their display order, and every row alive at that version in
// its position order (spec.md §4.5). Checkout holds a read lock for the
// whole reconstruction: it runs alongside other readers, and a commit
// waits until it returns.
func (a *Archive) Checkout(version int) (*CheckoutTable, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if version < 0 || version >= a.nextVersion {
		return nil, versionErrf(version, "unknown version")
	}

	cols := a.schema.ColumnsAt(version)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i], _ = c.NameAt(version)
	}

	type posRow struct {
		id  RowID
		pos int
	}
	var ordered []posRow
	for id, row := range a.rows {
		if pos, ok := row.PositionAt(version); ok {
			ordered = append(ordered, posRow{id: id, pos: pos})
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].pos < ordered[j].pos })

	rows := make([]CheckoutRow, len(ordered))
	for i, pr := range ordered {
		row := a.rows[pr.id]
		values := make([]Scalar, len(cols))
		for j, c := range cols {
			values[j] = row.CellAt(c.ID, version)
		}
		rows[i] = CheckoutRow{ID: pr.id, Values: values}
	}

	return &CheckoutTable{Columns: names, Rows: rows}, nil
}
