package histore

// RowID is an opaque, stable integer identifier for an archive row, unique
// within the archive and assigned on the row's first appearance. Row
// identity is carried by RowID, not by key or position, so both un-keyed
// archives (tracking history across reindexings) and keyed archives
// (tracking history across permutations) stay correct under reordering.
type RowID int64

// ArchiveRow is a row entity that persists across versions. Key and
// Position are MultiVersionValues; Cells maps a column to its own
// per-column cell history.
//
// Invariant: Timestamp() is a superset of Position's timestamp and of the
// union of every live column's cell timestamp; a missing cell for a column
// alive in the row implies null over the intersection of the row's and
// column's timestamps.
type ArchiveRow struct {
	ID        RowID
	Key       ArchiveValue
	Position  ArchiveValue
	Cells     map[ColumnID]ArchiveValue
	timestamp Timestamp
}

// NewArchiveRow creates a row first appearing at version.
func NewArchiveRow(id RowID, key Key, position int, cells map[ColumnID]Scalar, version int) *ArchiveRow {
	ts := TimestampOf(version)
	cellValues := make(map[ColumnID]ArchiveValue, len(cells))
	for col, val := range cells {
		cellValues[col] = NewSingleVersionValue(val, ts)
	}
	return &ArchiveRow{
		ID:        id,
		Key:       NewSingleVersionValue(keyScalar(key), ts),
		Position:  NewSingleVersionValue(Int(int64(position)), ts),
		Cells:     cellValues,
		timestamp: ts,
	}
}

// Timestamp returns the versions in which the row exists.
func (r *ArchiveRow) Timestamp() Timestamp { return r.timestamp }

// PositionAt returns the row's 0-based position at version.
func (r *ArchiveRow) PositionAt(version int) (int, bool) {
	v, ok := r.Position.AtVersion(version)
	if !ok {
		return 0, false
	}
	return int(v.Int()), true
}

// CellAt returns the value of column col at version. A column absent from
// Cells is treated as null for any version within the row's timestamp.
func (r *ArchiveRow) CellAt(col ColumnID, version int) Scalar {
	cell, ok := r.Cells[col]
	if !ok {
		return Null
	}
	v, ok := cell.AtVersion(version)
	if !ok {
		return Null
	}
	return v
}

// CellDiff reports how column col's value changed between two versions, or
// nil if unchanged (spec.md "Provenance diffs").
func (r *ArchiveRow) CellDiff(col ColumnID, oldVersion, newVersion int) *ValueDiff {
	cell, ok := r.Cells[col]
	if !ok {
		return nil
	}
	return cell.Diff(oldVersion, newVersion)
}

// merge extends the row with the values it holds at version, as observed
// in the incoming snapshot. cells holds only the columns present in that
// snapshot; columns present in the row but absent from cells and not
// listed in unchanged are left as-is (they are being dropped from future
// versions, i.e. terminated). Columns listed in unchanged have their
// current value (as of origin) extended to version.
func (r *ArchiveRow) merge(key Key, position int, cells map[ColumnID]Scalar, unchanged map[ColumnID]bool, version, origin int) {
	r.timestamp = r.timestamp.Append(version)
	r.Key = r.Key.Merge(keyScalar(key), version)
	r.Position = r.Position.Merge(Int(int64(position)), version)

	touched := make(map[ColumnID]bool, len(cells))
	for col, val := range cells {
		touched[col] = true
		if cell, ok := r.Cells[col]; ok {
			r.Cells[col] = cell.Merge(val, version)
		} else {
			r.Cells[col] = NewSingleVersionValue(val, TimestampOf(version))
		}
	}
	for col, cell := range r.Cells {
		if touched[col] {
			continue
		}
		if unchanged[col] {
			r.Cells[col] = cell.Extend(version, origin)
		}
	}
}

// rollback truncates the row's timestamp, key, position and cells to
// versions <= version. Returns false if the row's timestamp becomes empty,
// in which case the caller must drop the row entirely.
func (r *ArchiveRow) rollback(version int) bool {
	r.timestamp = r.timestamp.Rollback(version)
	if r.timestamp.IsEmpty() {
		return false
	}
	r.Key = rollbackValue(r.Key, version)
	r.Position = rollbackValue(r.Position, version)
	for col, cell := range r.Cells {
		rolled := rollbackValue(cell, version)
		if rolled == nil {
			delete(r.Cells, col)
		} else {
			r.Cells[col] = rolled
		}
	}
	return true
}

// keyScalar collapses a (possibly multi-column) key tuple into a single
// Scalar for storage inside an ArchiveValue. Single-element keys (including
// the row-index keys of un-keyed archives) are stored as the bare scalar;
// multi-element keys are stored as text produced by the tagged,
// length-prefixed key encoder (see keyenc.go).
func keyScalar(k Key) Scalar {
	if len(k) == 1 {
		return k[0]
	}
	return Text(encodeKeyText(k))
}
