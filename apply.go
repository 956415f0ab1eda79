package histore

import (
	"sort"
	"time"
)

// RowOperator transforms one currently-live row in place, without the
// archive ever materializing an intermediate checked-out table. Transform
// is called once per live row, in the archive's merge-key order (not the
// rows' display position order). It returns the row's new cell values
// (aligned with cols), a position hint used to reorder the output, and
// whether to keep the row at all.
//
// Ties in the position hint are broken by the order Transform was called in; after
// sorting by hint, rows are renumbered densely to 0..n-1, since a
// version's positions must always be dense (spec.md §4.4).
type RowOperator interface {
	Transform(id RowID, cols []string, values []Scalar) (newValues []Scalar, positionHint int, keep bool)
}

// Apply runs op over every row live at the archive's current version and
// commits the result as a new version, without ever building a
// CheckoutTable. Like Commit, Apply is all-or-nothing.
func (a *Archive) Apply(op RowOperator, description string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	version := a.nextVersion
	priorVersion := version - 1

	schema := cloneSchema(a.schema)
	cols := schema.ColumnsAt(priorVersion)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i], _ = c.NameAt(priorVersion)
	}

	rows := cloneRows(a.rows)

	type candidate struct {
		id     RowID
		hint   int
		seq    int
		values []Scalar
	}
	candidates := make([]candidate, 0, len(a.rowOrder))
	kept := make(map[RowID]bool, len(a.rowOrder))

	for seq, id := range a.rowOrder {
		row := rows[id]
		values := make([]Scalar, len(cols))
		for i, c := range cols {
			values[i] = row.CellAt(c.ID, priorVersion)
		}
		newValues, hint, keep := op.Transform(id, names, values)
		if !keep {
			continue
		}
		kept[id] = true
		candidates = append(candidates, candidate{id: id, hint: hint, seq: seq, values: newValues})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].hint != candidates[j].hint {
			return candidates[i].hint < candidates[j].hint
		}
		return candidates[i].seq < candidates[j].seq
	})

	positions := make(map[RowID]int, len(candidates))
	for pos, c := range candidates {
		positions[c.id] = pos
	}

	// rowOrder must stay sorted by ascending merge key, not by the display
	// position just computed above: the next Commit's merge-join walks it
	// assuming that order. Apply never changes a row's key, so filtering
	// the prior (already key-sorted) order by survivorship preserves it.
	newRowOrder := make([]RowID, 0, len(candidates))
	for _, id := range a.rowOrder {
		if kept[id] {
			newRowOrder = append(newRowOrder, id)
		}
	}

	for _, c := range candidates {
		row := rows[c.id]
		cells := make(map[ColumnID]Scalar, len(cols))
		for i, col := range cols {
			cells[col.ID] = c.values[i]
		}
		key, _ := row.Key.AtVersion(priorVersion)
		row.merge(keyAsTuple(key), positions[c.id], cells, nil, version, priorVersion)
	}

	for pos, col := range cols {
		col.extend(version, names[pos], pos)
	}

	snap := Snapshot{Version: version, Description: description, Action: ActionApply, CreatedAt: time.Now()}
	snaps := append(append(SnapshotListing(nil), a.snapshots...), snap)

	if err := a.store.stageCommit(&archiveState{
		Rows:        rows,
		RowOrder:    newRowOrder,
		Schema:      schema,
		Snapshots:   snaps,
		KeyColumns:  a.keyColumns,
		NextVersion: version + 1,
		NextRowID:   a.nextRowID,
		NextColID:   a.nextColID,
	}); err != nil {
		return 0, err
	}

	a.rows = rows
	a.rowOrder = newRowOrder
	a.schema = schema
	a.snapshots = snaps
	a.nextVersion = version + 1

	a.logger.Info("apply", "version", version, "rows", len(newRowOrder))
	return version, nil
}

// keyAsTuple wraps an already-collapsed key scalar back into a
// single-element Key for ArchiveRow.merge, which always re-collapses via
// keyScalar. Apply never changes a row's key, so the collapsed scalar is
// passed straight through rather than decoded.
func keyAsTuple(k Scalar) Key { return Key{k} }
