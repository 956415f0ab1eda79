package histore

import "sort"

// archiveState is the full persisted state of an archive: every row and
// column, the snapshot listing, and the id counters needed to keep
// assigning fresh RowIDs/ColumnIDs across process restarts.
type archiveState struct {
	Rows        map[RowID]*ArchiveRow
	RowOrder    []RowID
	Schema      *Schema
	Snapshots   SnapshotListing
	KeyColumns  []string
	NextVersion int
	NextRowID   RowID
	NextColID   ColumnID
}

// store persists archiveState and makes commits and rollbacks atomic: a
// failed stageCommit/stageRollback must leave the previously persisted
// state exactly as it was (spec.md §5, §7).
type store interface {
	// load reads the persisted state, or a zero-value empty state for a
	// freshly created archive.
	load() (*archiveState, error)

	// stageCommit durably replaces the persisted state with state.
	stageCommit(state *archiveState) error

	// stageRollback is the Rollback-specific commit path: the caller has
	// already computed the truncated rows/schema/snapshots and row
	// order; nextRowID/nextColID are passed through unchanged, since
	// rollback never reassigns or reclaims ids.
	stageRollback(rows map[RowID]*ArchiveRow, rowOrder []RowID, schema *Schema, snaps SnapshotListing, keyColumns []string, nextVersion int, nextRowID RowID, nextColID ColumnID) error

	// size reports the current on-disk (or in-memory) footprint in bytes.
	size() int64

	// close releases any resources (open files, pooled connections).
	close() error
}

// keySortedRowOrder returns every row present at version, ordered by its
// merge key at that version, for use as the archive's rowOrder after a
// rollback. This is the order mergeSnapshot's join requires (ascending
// merge key), which is unrelated to the rows' display Position: a
// rollback can change which rows are live, so the previous rowOrder
// cannot simply be filtered in place.
func keySortedRowOrder(rows map[RowID]*ArchiveRow, version int) []RowID {
	type keyRow struct {
		id  RowID
		key Scalar
	}
	ordered := make([]keyRow, 0, len(rows))
	for id, row := range rows {
		k, ok := row.Key.AtVersion(version)
		if !ok {
			continue
		}
		ordered = append(ordered, keyRow{id: id, key: k})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].key.Less(ordered[j].key) })
	out := make([]RowID, len(ordered))
	for i, kr := range ordered {
		out[i] = kr.id
	}
	return out
}

// maxRowID returns the largest RowID present in rows, or -1 if empty.
func maxRowID(rows map[RowID]*ArchiveRow) RowID {
	max := RowID(-1)
	for id := range rows {
		if id > max {
			max = id
		}
	}
	return max
}

// maxColumnID returns the largest ColumnID present in cols, or -1 if
// empty.
func maxColumnID(cols []*ArchiveColumn) ColumnID {
	max := ColumnID(-1)
	for _, c := range cols {
		if c.ID > max {
			max = c.ID
		}
	}
	return max
}
