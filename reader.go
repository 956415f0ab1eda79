package histore

import "sort"

// RowHistory is the raw, per-version provenance of one archive row: its
// timestamp, and its key/position/cell values however they varied across
// it (exposed as the ArchiveValue rather than flattened per version, so a
// caller can walk exactly the versions in which something changed).
type RowHistory struct {
	ID       RowID
	Key      ArchiveValue
	Position ArchiveValue
	Cells    map[ColumnID]ArchiveValue
	Lifetime Timestamp
}

// Reader returns the raw history of every row the archive has ever held,
// live or since terminated, ordered by RowID assignment order. Intended
// for provenance inspection, not for reconstructing a version (use
// Checkout for that).
func (a *Archive) Reader() []RowHistory {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]RowHistory, 0, len(a.rows))
	for id, row := range a.rows {
		out = append(out, RowHistory{
			ID:       id,
			Key:      row.Key,
			Position: row.Position,
			Cells:    row.Cells,
			Lifetime: row.timestamp,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RowHistoryAt returns the raw history of a single row, or false if no
// row with that id has ever existed.
func (a *Archive) RowHistoryAt(id RowID) (RowHistory, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	row, ok := a.rows[id]
	if !ok {
		return RowHistory{}, false
	}
	return RowHistory{
		ID:       id,
		Key:      row.Key,
		Position: row.Position,
		Cells:    row.Cells,
		Lifetime: row.timestamp,
	}, true
}

// ColumnNameAt returns the display name of col at version, or false if
// the column did not exist then. Lets Reader/RowHistoryAt consumers —
// whose Cells are keyed by the opaque ColumnID — label a cell's column
// without reaching into the archive's schema directly.
func (a *Archive) ColumnNameAt(col ColumnID, version int) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	c := a.schema.ColumnByID(col)
	if c == nil {
		return "", false
	}
	return c.NameAt(version)
}
